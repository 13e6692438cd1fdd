package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-service/internal/api/http"
	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/directory"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/repository/memory"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(*cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	var (
		store   repository.Store
		baseDir directory.Directory
	)
	if pg.Enabled() {
		store = repository.NewPostgresStore(pg.PoolHandle())
		baseDir = directory.NewPostgres(pg.PoolHandle())
	} else {
		logger.Warn("running on in-memory store with a config-seeded staff directory",
			zap.Int("staff", len(cfg.Directory.Staff)),
			zap.Int("projects", len(cfg.Directory.Projects)))
		store = memory.New()
		baseDir = directory.NewStaticFromConfig(cfg.Directory)
	}
	dir := directory.NewCached(baseDir, redis.Client, cfg.Redis.CacheTTL(), logger)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	var kafka *events.KafkaPublisher
	if cfg.Notification.KafkaEnabled {
		kafka = events.NewKafkaPublisher(cfg.Notification, logger)
		defer kafka.Close() //nolint:errcheck
	}
	worker.StartNotificationWorker(notificationService, dispatcher, kafka)

	workloadService := service.NewWorkloadService(store, dir, cfg.Assignment.CountResolvedAsActive)
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		Store:      store,
		Directory:  dir,
		Workload:   workloadService,
		Dispatcher: dispatcher,
		Strategy:   service.Strategy(cfg.Assignment.Strategy),
		Logger:     logger,
		Metrics:    metrics,
	})
	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		Store:             store,
		Assignment:        assignmentService,
		Dispatcher:        dispatcher,
		Logger:            logger,
		Metrics:           metrics,
		AutoRouteOnCreate: cfg.Assignment.AutoRouteOnCreate,
	})

	if cfg.Balance.Enabled {
		locker := persistence.NewLocker(redis, cfg.App.Name+":lock:")
		balancer := worker.NewBalanceWorker(assignmentService, locker, service.SystemActor, cfg.Balance.Interval(), cfg.Balance.LockTTL(), logger)
		go balancer.Run(ctx)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, baseDir)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Complaints:     handlers.NewComplaintsHandler(complaintService),
		Workload:       handlers.NewWorkloadHandler(workloadService, assignmentService),
		AuthMiddleware: authMiddleware,
		Gatherer:       registry,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
