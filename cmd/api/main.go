package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/metallic-erp/support-hub/internal/api/http"
	"github.com/metallic-erp/support-hub/internal/api/http/handlers"
	"github.com/metallic-erp/support-hub/internal/auth"
	"github.com/metallic-erp/support-hub/internal/config"
	"github.com/metallic-erp/support-hub/internal/events"
	"github.com/metallic-erp/support-hub/internal/notify"
	"github.com/metallic-erp/support-hub/internal/observability"
	"github.com/metallic-erp/support-hub/internal/persistence"
	"github.com/metallic-erp/support-hub/internal/service"
	"github.com/metallic-erp/support-hub/internal/store"
	"github.com/metallic-erp/support-hub/internal/worker"
)

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

	snaps, healthDeps, closeBackend := buildSnapshotBackend(ctx, cfg, logger)
	defer closeBackend()

	entityStore := store.New(ctx, snaps, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, entityStore)

	dispatcher := events.NewInMemoryDispatcher(logger)
	notifications := service.NewNotificationService(cfg.Notification, logger)
	notifications.Register(dispatcher)
	worker.StartNotificationWorker(ctx, notifications, logger)

	var notifier notify.Notifier
	if cfg.SMTP.Host != "" {
		notifier = notify.NewSMTPNotifier(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		logger.Warn("SMTP_HOST not configured, using simulated email sender")
		notifier = notify.NewSimulatedNotifier(logger, cfg.SMTP.SimulatedDelay())
	}

	recorder := service.NewHistoryRecorder(entityStore, logger)
	lifecycle := service.NewLifecycleService(service.LifecycleDependencies{
		Store:      entityStore,
		Recorder:   recorder,
		Notifier:   notifier,
		Dispatcher: dispatcher,
		Logger:     logger,
		Rules: service.AssignmentRules{
			ProgramIssueAssignee: cfg.Assignment.ProgramIssueAssignee,
			UnlockAssignee:       cfg.Assignment.UnlockAssignee,
		},
	})
	authService := service.NewAuthService(entityStore, tokens, cfg.Auth, logger)
	userService := service.NewUserService(entityStore, cfg.Auth.BcryptCost, logger)
	assistantService := service.NewAssistantService(cfg.Assistant, logger)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, healthDeps),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(lifecycle),
		Admin:          handlers.NewAdminHandler(userService),
		Assistant:      handlers.NewAssistantHandler(assistantService, lifecycle),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// buildSnapshotBackend selects the Snapshotter named by SNAPSHOT_BACKEND and
// returns it with its health-check dependencies and cleanup.
func buildSnapshotBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Snapshotter, map[string]handlers.Pinger, func()) {
	switch cfg.Snapshot.Backend {
	case "redis":
		redis := persistence.NewRedis(cfg.Redis, logger)
		snaps := persistence.NewRedisSnapshotStore(redis, cfg.Snapshot.KeyPrefix)
		return snaps, map[string]handlers.Pinger{"redis": redis}, redis.Close
	case "postgres":
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		snaps, err := persistence.NewPostgresSnapshotStore(ctx, pg, logger)
		if err != nil {
			logger.Fatal("failed to prepare snapshot table", zap.Error(err))
		}
		return snaps, map[string]handlers.Pinger{"postgres": pg}, pg.Close
	default:
		logger.Info("using in-memory snapshot backend")
		return persistence.NewMemorySnapshotStore(), map[string]handlers.Pinger{}, func() {}
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
