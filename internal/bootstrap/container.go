package bootstrap

import (
	"context"
	"log"

	"ai-caller-be/internal/config"
	"ai-caller-be/internal/controller"
	"ai-caller-be/internal/handler"
	"ai-caller-be/internal/pkg/logger"
	"ai-caller-be/internal/pkg/serverutils"
	"ai-caller-be/internal/repository/memory"
	"ai-caller-be/internal/repository/unitofwork"
	"ai-caller-be/internal/service"
	"ai-caller-be/internal/websocket"
	"ai-caller-be/pkg/elevenlabs"
	kbevents "ai-caller-be/pkg/knowledge/events"
	"ai-caller-be/pkg/knowledge/reconcile"
	"ai-caller-be/pkg/knowledge/resolver"
	pktNats "ai-caller-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	KnowledgeBaseController  controller.IKnowledgeBaseController
	KnowledgeMetaController  controller.IKnowledgeMetaController
	AgentKnowledgeController controller.IAgentKnowledgeController

	// Background Services (Exposed for main.go to run)
	DriftRepairService service.IDriftRepairService
	EventRelay         *service.KnowledgeEventRelay

	// WebSockets
	ConsoleHandler *handler.ConsoleHandler
	WebSocketHub   *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	auth := serverutils.NewJwtMiddleware(cfg.Auth.JWTSecret)

	if cfg.Keys.ElevenLabs == "" {
		sysLogger.Warn("Bootstrap", "ELEVENLABS_API_KEY is not set, knowledge base calls will fail as unauthorized", nil)
	}

	// 2. In-process queue for drift repairs
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermillLogger,
	)

	// 3. Infrastructure
	var closers []func()

	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	} else {
		closers = append(closers, natsPub.Close)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		natsSub = nil
	} else {
		closers = append(closers, natsSub.Close)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Console fan-out is local only", err)
		rdb = nil
	}

	consoleLogger := logger.NewIsolatedLogger(cfg.App.ConsoleLogFilePath)
	wsHub := websocket.NewHub(rdb, consoleLogger)

	// 4. Knowledge base domain
	kbClient := elevenlabs.NewClient(elevenlabs.Options{
		BaseURL:           cfg.KnowledgeBase.BaseURL,
		ConvaiPrefix:      cfg.KnowledgeBase.ConvaiPrefix,
		LegacyPrefix:      cfg.KnowledgeBase.LegacyPrefix,
		APIKey:            cfg.Keys.ElevenLabs,
		Timeout:           cfg.KnowledgeBase.RequestTimeout,
		RequestsPerSecond: cfg.KnowledgeBase.RequestsPerSecond,
	})
	localStore := service.NewLocalMetaStore(uowFactory)
	engine := reconcile.NewEngine(kbClient, localStore, sysLogger)
	detailResolver := resolver.New(kbClient, sysLogger)
	detailCache := memory.NewDetailCache(cfg.KnowledgeBase.DetailCacheTTL)
	eventPublisher := kbevents.NewNatsPublisher(natsPub, sysLogger)

	publisherService := service.NewPublisherService(pubSub)
	driftRepairService := service.NewDriftRepairService(
		pubSub,
		publisherService,
		cfg.KnowledgeBase.DriftRepairTopic,
		localStore,
		cfg.KnowledgeBase.DriftMaxAttempts,
		sysLogger,
	)

	knowledgeBaseService := service.NewKnowledgeBaseService(
		engine,
		kbClient,
		detailResolver,
		localStore,
		detailCache,
		eventPublisher,
		driftRepairService,
		sysLogger,
		cfg.KnowledgeBase.DefaultPageSize,
	)
	knowledgeMetaService := service.NewKnowledgeMetaService(uowFactory)
	agentKnowledgeService := service.NewAgentKnowledgeService(uowFactory)

	// 5. Live console
	consoleService := service.NewConsoleService(knowledgeBaseService, cfg.KnowledgeBase.LivePollInterval, consoleLogger)
	eventRelay := service.NewKnowledgeEventRelay(natsSub, wsHub, consoleLogger)
	consoleHandler := handler.NewConsoleHandler(consoleService, wsHub, cfg.Auth.JWTSecret, consoleLogger)

	return &Container{
		KnowledgeBaseController:  controller.NewKnowledgeBaseController(knowledgeBaseService, auth),
		KnowledgeMetaController:  controller.NewKnowledgeMetaController(knowledgeMetaService, auth),
		AgentKnowledgeController: controller.NewAgentKnowledgeController(agentKnowledgeService, auth),

		DriftRepairService: driftRepairService,
		EventRelay:         eventRelay,

		ConsoleHandler: consoleHandler,
		WebSocketHub:   wsHub,

		Logger:  sysLogger,
		closers: append(closers, func() { _ = pubSub.Close() }),
	}
}

// Close releases bus connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
