package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/r3-fresh/tickets-management-sub000/internal/api/http"
	"github.com/r3-fresh/tickets-management-sub000/internal/api/http/handlers"
	"github.com/r3-fresh/tickets-management-sub000/internal/auth"
	"github.com/r3-fresh/tickets-management-sub000/internal/clock"
	"github.com/r3-fresh/tickets-management-sub000/internal/config"
	"github.com/r3-fresh/tickets-management-sub000/internal/events"
	"github.com/r3-fresh/tickets-management-sub000/internal/notification"
	"github.com/r3-fresh/tickets-management-sub000/internal/notification/mailapi"
	"github.com/r3-fresh/tickets-management-sub000/internal/observability"
	"github.com/r3-fresh/tickets-management-sub000/internal/persistence"
	"github.com/r3-fresh/tickets-management-sub000/internal/repository"
	"github.com/r3-fresh/tickets-management-sub000/internal/service"
	"github.com/r3-fresh/tickets-management-sub000/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	var codes repository.TicketCodeAllocator
	if cfg.Tickets.CodeBackend == config.CodeBackendRedis {
		if redis.Client == nil {
			logger.Fatal("ticket code backend is redis but REDIS_ADDR is empty")
		}
		codes = repository.NewRedisCodeAllocator(redis.Client)
	}

	var port notification.Port
	if cfg.Notification.MailAPIURL != "" {
		port = mailapi.New(cfg.Notification, logger)
	} else {
		logger.Info("MAIL_API_URL not set, notifications are only logged")
		port = notification.NewLogNotifier(logger, cfg.Notification.PublicBaseURL)
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	service.NewNotificationService(dispatcher, port, ticketRepo, metrics, logger).RegisterHandlers()

	queue := worker.NewQueue(logger, metrics, cfg.Notification.Workers, cfg.Notification.QueueSize, cfg.Notification.Timeout())
	queue.Start()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		CommentRepo:    repository.NewCommentRepository(pool),
		ViewRepo:       repository.NewTicketViewRepository(pool),
		AttachmentRepo: repository.NewAttachmentRepository(pool),
		HistoryRepo:    repository.NewTicketHistoryRepository(pool),
		UserRepo:       userRepo,
		CatalogRepo:    repository.NewCatalogRepository(pool),
		CodeAllocator:  codes,
		Access:         auth.NewContextAccess(),
		Dispatcher:     dispatcher,
		Deferred:       queue,
		Clock:          clock.Real(),
		Metrics:        metrics,
		Logger:         logger,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)

	var redisProbe handlers.Pinger
	if redis.Client != nil {
		redisProbe = redis
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisProbe),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Workflow:       handlers.NewWorkflowHandler(ticketService),
		Comments:       handlers.NewCommentsHandler(ticketService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	graceCtx, graceCancel := context.WithTimeout(context.Background(), cfg.Notification.ShutdownGrace())
	defer graceCancel()
	if err := queue.Shutdown(graceCtx); err != nil {
		logger.Warn("pending notifications abandoned", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
