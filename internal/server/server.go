package server

import (
	"context"
	"strings"
	"time"

	"einvoice-assistant-be/internal/bootstrap"
	"einvoice-assistant-be/internal/config"
	"einvoice-assistant-be/internal/controller"
	"einvoice-assistant-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

// HealthResponse is served on /healthz.
type HealthResponse struct {
	Tables           int  `json:"tables"`
	Sessions         int  `json:"sessions"`
	SnapshotsEnabled bool `json:"snapshots_enabled"`
	EventForwarding  bool `json:"event_forwarding"`
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // queries are short; 1MB covers any JSON body
		// a turn may wait for the session lock and then for a generation call
		ReadTimeout:  cfg.Session.LockWait + cfg.Ai.Timeout + 10*time.Second,
		WriteTimeout: cfg.Session.LockWait + cfg.Ai.Timeout + 10*time.Second,
	})

	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: allowCredentials(cfg.App.CorsAllowedOrigins),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
	}))
	app.Use(otelfiber.Middleware())
	app.Use(serverutils.ErrorHandlerMiddleware(controller.StatusOf))
	app.Use(recover.New())

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

// allowCredentials is false for wildcard origins; cors refuses to combine
// the two. An empty list means "*" to cors.
func allowCredentials(origins string) bool {
	if strings.TrimSpace(origins) == "" {
		return false
	}
	for _, o := range strings.Split(origins, ",") {
		if strings.TrimSpace(o) == "*" {
			return false
		}
	}
	return true
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.container.Logger.Info("SERVER", "Server is running", map[string]interface{}{"port": s.cfg.App.Port})
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		health := HealthResponse{
			Tables:           len(c.Engine.Taxonomy.Tables()),
			SnapshotsEnabled: c.SnapshotsEnabled,
			EventForwarding:  c.EventForwarding,
		}
		if c.Sessions != nil {
			health.Sessions = c.Sessions.Count()
		}
		return ctx.JSON(serverutils.SuccessResponse("ok", health))
	})

	api := app.Group("/api")
	c.ChatController.RegisterRoutes(api)
}
