package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/campusdesk/service-desk/internal/api/http"
	"github.com/campusdesk/service-desk/internal/api/http/handlers"
	"github.com/campusdesk/service-desk/internal/auth"
	"github.com/campusdesk/service-desk/internal/cache"
	"github.com/campusdesk/service-desk/internal/config"
	"github.com/campusdesk/service-desk/internal/events"
	"github.com/campusdesk/service-desk/internal/observability"
	"github.com/campusdesk/service-desk/internal/persistence"
	"github.com/campusdesk/service-desk/internal/repository"
	"github.com/campusdesk/service-desk/internal/repository/memory"
	"github.com/campusdesk/service-desk/internal/service"
	"github.com/campusdesk/service-desk/internal/worker"
)

type stores struct {
	tickets       repository.TicketRepository
	notifications repository.NotificationRepository
	feedback      repository.FeedbackRepository
}

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

	var pg *persistence.Postgres
	var repos stores
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pg, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		pool := pg.PoolHandle()
		repos = stores{
			tickets:       repository.NewTicketRepository(pool),
			notifications: repository.NewNotificationRepository(pool),
			feedback:      repository.NewFeedbackRepository(pool),
		}
	default:
		logger.Warn("using in-memory store; data is lost on restart")
		repos = stores{
			tickets:       memory.NewTicketStore(),
			notifications: memory.NewNotificationStore(),
			feedback:      memory.NewFeedbackStore(),
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var statsCache cache.Cache
	if client := redis.Handle(); client != nil {
		statsCache = cache.NewRedisCache(client, cfg.App.Name+":", cfg.Stats.CacheTTL())
	} else {
		statsCache = cache.NewMemoryCache(cfg.Stats.CacheTTL())
	}

	dispatcher := events.NewAsyncDispatcher(events.NewInMemoryDispatcher(), cfg.Notification.QueueSize, logger, func(e events.Event) {
		metrics.RecordDropped()
		logger.Warn("event dropped", zap.String("event_type", string(e.Type)), zap.String("ticket_id", e.TicketID))
	})

	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:       dispatcher,
		NotificationRepo: repos.notifications,
		Logger:           logger,
		Metrics:          metrics,
		Config:           cfg.Notification,
	})
	lifecycle := events.NewInMemoryDispatcher()
	notificationService.RegisterLifecycleHandlers(lifecycle)
	notificationWorker := worker.NewNotificationWorker(dispatcher, notificationService, cfg.Notification.Workers, logger)
	notificationWorker.Start()

	policy := auth.DefaultPolicy()
	statsService := service.NewStatsService(service.StatsDependencies{
		TicketRepo: repos.tickets,
		Cache:      statsCache,
		Policy:     policy,
		Logger:     logger,
		Metrics:    metrics,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: repos.tickets,
		Policy:     policy,
		Notifier:   notificationService,
		Lifecycle:  lifecycle,
		Stats:      statsService,
		Logger:     logger,
		Metrics:    metrics,
	})
	feedbackService := service.NewFeedbackService(service.FeedbackDependencies{
		FeedbackRepo: repos.feedback,
		TicketRepo:   repos.tickets,
		Policy:       policy,
		Lifecycle:    lifecycle,
		Cache:        statsCache,
		Logger:       logger,
		Metrics:      metrics,
		AllowClosed:  cfg.Workflow.FeedbackAllowClosed,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:        handlers.NewTicketsHandler(ticketService, feedbackService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Admin:          handlers.NewAdminHandler(ticketService, statsService, feedbackService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
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
	notificationWorker.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
