package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/online-booking/booking-service/internal/api/http"
	"github.com/online-booking/booking-service/internal/api/http/handlers"
	"github.com/online-booking/booking-service/internal/auth"
	"github.com/online-booking/booking-service/internal/config"
	"github.com/online-booking/booking-service/internal/events"
	"github.com/online-booking/booking-service/internal/observability"
	"github.com/online-booking/booking-service/internal/persistence"
	"github.com/online-booking/booking-service/internal/repository"
	"github.com/online-booking/booking-service/internal/service"
	"github.com/online-booking/booking-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

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

	var (
		accountRepo repository.AccountRepository
		resetRepo   repository.PasswordResetRepository
	)
	if pg.Enabled() {
		pool := pg.PoolHandle()
		accountRepo = repository.NewAccountRepository(pool)
		resetRepo = repository.NewPasswordResetRepository(pool)
	} else {
		accountRepo = repository.NewMemoryAccountRepository()
		resetRepo = repository.NewMemoryPasswordResetRepository()
	}

	var (
		credentials auth.CredentialProvider
		sessions    service.SessionRevoker
	)
	switch cfg.Auth.CredentialMode {
	case config.CredentialModeSession:
		store := auth.NewSessionStore(redis.Client, cfg.Auth.CredentialTTL())
		credentials, sessions = store, store
		go worker.NewSessionJanitor(store, cfg.Auth.SessionPruneInterval(), logger).Run(ctx)
	default:
		credentials = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.CredentialTTL(),
			auth.WithRevocationList(auth.NewRedisRevocationList(redis.Client)))
	}
	logger.Info("credential mode selected", zap.String("mode", cfg.Auth.CredentialMode))

	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification, sessions))

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		Accounts:          accountRepo,
		PasswordResetRepo: resetRepo,
		Credentials:       credentials,
		Dispatcher:        dispatcher,
		Recorder:          metrics,
		Logger:            logger,
	})
	adminService := service.NewAdminService(accountRepo, authService.Hasher(), dispatcher, logger)

	if err := service.BootstrapAdmin(ctx, accountRepo, authService.Hasher(), cfg.Bootstrap, logger); err != nil {
		logger.Fatal("failed to bootstrap admin", zap.Error(err))
	}

	authMiddleware := auth.NewAuthMiddleware(credentials, accountRepo, metrics)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:          cfg.App.RequestTimeout(),
		CORSAllowOrigins: cfg.App.CORSAllowOrigins,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, logger),
		Auth:           handlers.NewAuthHandler(authService),
		Admin:          handlers.NewAdminHandler(adminService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
