package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/menuguard/menuguard/internal/activity"
	"github.com/menuguard/menuguard/internal/app"
	"github.com/menuguard/menuguard/internal/authz"
	"github.com/menuguard/menuguard/internal/events"
	"github.com/menuguard/menuguard/internal/formsync"
	"github.com/menuguard/menuguard/internal/invalidate"
	"github.com/menuguard/menuguard/internal/menu"
	"github.com/menuguard/menuguard/internal/observability"
	"github.com/menuguard/menuguard/internal/options"
	"github.com/menuguard/menuguard/internal/platform/cache"
	"github.com/menuguard/menuguard/internal/platform/db"
	"github.com/menuguard/menuguard/internal/roles"
	"github.com/menuguard/menuguard/internal/shared"
	"github.com/menuguard/menuguard/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "menuguard_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	optionStore := options.NewStore(redisClient)
	integrations := formsync.IntegrationsFromNames(cfg.Integrations)

	activityRepo := activity.NewRepository(pool)
	activityService := activity.NewService(activityRepo)
	activityHandler := activity.NewHandler(logger, activityService)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	bus := events.NewBus(logger)
	bus.Subscribe(formsync.NewListener(logger, asynqClient, integrations))

	rolesRepo := roles.NewRepository(pool)
	invalidator := invalidate.New(redisClient, logger).WithCounter(metrics.CacheInvalidation)
	rolesService := roles.NewService(logger, rolesRepo, invalidator, activityService, bus, optionStore).
		WithMutationCounter(metrics.RoleMutations)
	rolesHandler := roles.NewHandler(logger, rolesService, cfg.CommerceActive, integrations.Any())

	// Re-resolve persisted capability sets once per interval, so roles
	// saved by older builds regain their implied capabilities.
	rolesService.MaybeFixExistingRoles(ctx, cfg.RoleRepairInterval)

	subsystems := menu.Subsystems{
		Commerce:     cfg.CommerceActive,
		NinjaForms:   integrations.NinjaForms,
		GravityForms: integrations.GravityForms,
	}
	menuRepo := menu.NewRepository(pool)
	menuService := menu.NewService(logger, menuRepo, optionStore, rolesRepo, activityService, nil, subsystems)
	menuFilter := menu.NewFilter(logger, menuService, rolesRepo)
	menuHandler := menu.NewHandler(logger, menuService, menuFilter)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService)

	authzMiddleware := authz.Middleware{
		Authority: rolesRepo,
		Cache:     redisClient,
		Logger:    logger,
	}

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		RolesHandler:    rolesHandler,
		MenuHandler:     menuHandler,
		UsersHandler:    usersHandler,
		ActivityHandler: activityHandler,
		Pool:            pool,
		Authz:           authzMiddleware,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
