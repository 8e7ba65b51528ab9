package bootstrap

import (
	"context"

	"einvoice-assistant-be/internal/config"
	"einvoice-assistant-be/internal/controller"
	"einvoice-assistant-be/internal/pkg/logger"
	"einvoice-assistant-be/internal/pkg/serverutils"
	"einvoice-assistant-be/internal/repository/memory"
	redisrepo "einvoice-assistant-be/internal/repository/redis"
	"einvoice-assistant-be/internal/service"
	"einvoice-assistant-be/internal/websocket"
	"einvoice-assistant-be/pkg/lang"
	pktNats "einvoice-assistant-be/pkg/nats"
	"einvoice-assistant-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	Logger logger.ILogger
	Engine *Engine

	// Controllers
	ChatController controller.IChatController

	// Background Services (exposed for main.go to run)
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub

	// Health
	Sessions         *memory.SessionRepository
	SnapshotsEnabled bool
	EventForwarding  bool

	closers []func() error
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.New(logger.Options{
		FilePath:   cfg.App.LogFilePath,
		Level:      cfg.App.LogLevel,
		Console:    true,
		Production: cfg.App.Environment == "production",
	})

	engine, err := NewEngine(ctx, cfg, sysLogger)
	if err != nil {
		return nil, err
	}
	c := &Container{Logger: sysLogger, Engine: engine}
	c.closers = append(c.closers, engine.Close)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermillLogger,
	)
	c.closers = append(c.closers, pubSub.Close)

	// 3. Infrastructure
	// NATS
	var forwarder service.EventForwarder
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		} else {
			forwarder = natsPub
			c.EventForwarding = true
			c.closers = append(c.closers, func() error { natsPub.Close(); return nil })
		}
	}

	// Redis
	var rdb *redis.Client
	var snapshots service.SnapshotStore
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		client := redis.NewClient(opt)
		if _, err := client.Ping(ctx).Result(); err != nil {
			sysLogger.Warn("BOOTSTRAP", "Failed to connect to Redis, snapshots disabled", map[string]interface{}{"error": err.Error()})
			client.Close()
		} else {
			rdb = client
			snapshots = redisrepo.NewSnapshotRepository(rdb, cfg.Session.SnapshotTTL)
			c.SnapshotsEnabled = true
			c.closers = append(c.closers, rdb.Close)
		}
	}

	// WebSocket Hub
	c.WebSocketHub = websocket.NewHub(rdb, sysLogger)

	// 4. Services
	eventLogger := logger.NewIsolatedLogger(cfg.App.EventLogFilePath)
	publisherService := service.NewPublisherService(cfg.App.TurnEventTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.App.TurnEventTopic, eventLogger, forwarder, sysLogger)

	defaultLanguage, err := lang.Parse(cfg.Session.DefaultLanguage)
	if err != nil {
		defaultLanguage = lang.English
	}
	c.Sessions = memory.NewSessionRepository(cfg.Session.TTL, cfg.Session.CleanupInterval)
	chatService := service.NewChatService(
		engine.Taxonomy,
		engine.Pipeline,
		engine.State,
		c.Sessions,
		snapshots,
		publisherService,
		c.WebSocketHub,
		service.ChatServiceConfig{
			DefaultLanguage: defaultLanguage,
			DefaultModel:    store.ModelConfig{ModelName: cfg.Ai.LLMModel, Temperature: cfg.Ai.Temperature},
			LockWait:        cfg.Session.LockWait,
		},
		sysLogger,
	)

	// 5. Controllers
	var guard fiber.Handler
	if cfg.App.JWTSecret != "" {
		guard = serverutils.NewJwtMiddleware(cfg.App.JWTSecret)
	}
	c.ChatController = controller.NewChatController(chatService, c.WebSocketHub, guard)

	return c, nil
}

// Close releases infrastructure in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Logger.Warn("BOOTSTRAP", "Close failed", map[string]interface{}{"error": err.Error()})
		}
	}
	_ = c.Logger.Sync()
}
