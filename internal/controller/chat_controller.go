package controller

import (
	"context"
	"errors"

	"einvoice-assistant-be/internal/dto"
	"einvoice-assistant-be/internal/pkg/serverutils"
	"einvoice-assistant-be/internal/repository/memory"
	"einvoice-assistant-be/internal/service"
	ws "einvoice-assistant-be/internal/websocket"
	"einvoice-assistant-be/pkg/ai/pipeline"
	"einvoice-assistant-be/pkg/lang"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	Query(ctx *fiber.Ctx) error
	SetLanguage(ctx *fiber.Ctx) error
	Configure(ctx *fiber.Ctx) error
	SetFilters(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Taxonomy(ctx *fiber.Ctx) error
	Examples(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
	hub     *ws.Hub
	guard   fiber.Handler
}

// NewChatController builds the chat API. guard protects every route when
// set; hub enables the websocket endpoint when set.
func NewChatController(service service.IChatService, hub *ws.Hub, guard fiber.Handler) IChatController {
	return &chatController{service: service, hub: hub, guard: guard}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	if c.guard != nil {
		h.Use(c.guard)
	}
	h.Get("/taxonomy", c.Taxonomy)
	h.Get("/examples", c.Examples)
	h.Post("/sessions", c.CreateSession)
	h.Post("/sessions/:id/query", c.Query)
	h.Put("/sessions/:id/language", c.SetLanguage)
	h.Put("/sessions/:id/config", c.Configure)
	h.Put("/sessions/:id/filters", c.SetFilters)
	h.Post("/sessions/:id/reset", c.Reset)
	h.Delete("/sessions/:id", c.Delete)
	h.Get("/sessions/:id/history", c.History)

	if c.hub != nil {
		h.Get("/sessions/:id/ws", c.upgrade, websocket.New(c.stream))
	}
}

// StatusOf maps chat service errors onto HTTP statuses.
func StatusOf(err error) (int, bool) {
	switch {
	case errors.Is(err, memory.ErrSessionNotFound):
		return fiber.StatusNotFound, true
	case errors.Is(err, service.ErrSessionBusy):
		return fiber.StatusConflict, true
	case errors.Is(err, service.ErrUnknownFilter),
		errors.Is(err, pipeline.ErrEmptyQuery),
		errors.Is(err, lang.ErrUnsupportedLanguage):
		return fiber.StatusBadRequest, true
	}
	return 0, false
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateSession(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Session created", res))
}

func (c *chatController) Query(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Submit(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Query answered", res))
}

func (c *chatController) SetLanguage(ctx *fiber.Ctx) error {
	var req dto.SetLanguageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SetLanguage(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Language updated", res))
}

func (c *chatController) Configure(ctx *fiber.Ctx) error {
	var req dto.ConfigureRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Configure(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Model configuration updated", res))
}

func (c *chatController) SetFilters(ctx *fiber.Ctx) error {
	var req dto.SetFiltersRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := c.service.SetFilters(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Filters updated", res))
}

func (c *chatController) Reset(ctx *fiber.Ctx) error {
	res, err := c.service.Reset(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session reset", res))
}

func (c *chatController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.Delete(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Session deleted", nil))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	res, err := c.service.History(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *chatController) Taxonomy(ctx *fiber.Ctx) error {
	code, err := languageParam(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get taxonomy", c.service.Taxonomy(code)))
}

func (c *chatController) Examples(ctx *fiber.Ctx) error {
	code, err := languageParam(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get examples", c.service.Examples(code)))
}

func languageParam(ctx *fiber.Ctx) (lang.Code, error) {
	raw := ctx.Query("lang")
	if raw == "" {
		return lang.English, nil
	}
	return lang.Parse(raw)
}

// upgrade rejects non-websocket requests and unknown sessions before the
// handshake.
func (c *chatController) upgrade(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	if _, err := c.service.History(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.Next()
}

func (c *chatController) stream(conn *websocket.Conn) {
	ws.ServeWs(context.Background(), c.hub, conn, conn.Params("id"), func(ctx context.Context, sessionID, text string) error {
		_, err := c.service.Submit(ctx, sessionID, &dto.QueryRequest{Text: text})
		return err
	})
}
