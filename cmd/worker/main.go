package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/menuguard/menuguard/internal/activity"
	"github.com/menuguard/menuguard/internal/app"
	"github.com/menuguard/menuguard/internal/formsync"
	jobmetrics "github.com/menuguard/menuguard/internal/jobs"
	"github.com/menuguard/menuguard/internal/observability"
	"github.com/menuguard/menuguard/internal/platform/cache"
	"github.com/menuguard/menuguard/internal/platform/db"
	"github.com/menuguard/menuguard/internal/roles"
	"github.com/menuguard/menuguard/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	metrics := observability.NewMetrics()
	integrations := formsync.IntegrationsFromNames(cfg.Integrations)

	rolesRepo := roles.NewRepository(pool)
	synchronizer := formsync.NewSynchronizer(logger, redisClient, rolesRepo, integrations).
		WithCounter(metrics.FormSyncs)

	activityRepo := activity.NewRepository(pool)
	activityService := activity.NewService(activityRepo)

	cleanupTask, err := jobs.NewActivityCleanupTask(jobs.ActivityCleanupPayload{
		RetentionDays: cfg.ActivityRetentionDays,
	})
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Metrics:   jobmetrics.NewMetrics(metrics.Registerer()),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskFormSyncRole, Handler: formsync.RoleSyncHandler(synchronizer)},
			{Type: jobs.TaskFormSyncUser, Handler: formsync.UserSyncHandler(synchronizer)},
			{Type: jobs.TaskActivityCleanup, Handler: activity.CleanupHandler(logger, activityService)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
