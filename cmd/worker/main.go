package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/sahyadri-hs/backoffice/internal/app"
	"github.com/sahyadri-hs/backoffice/internal/backup"
	"github.com/sahyadri-hs/backoffice/internal/platform/db"
	"github.com/sahyadri-hs/backoffice/jobs"
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
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	handlers := []jobs.TaskHandler{
		{Type: jobs.TaskSessionSweep, Handler: jobs.NewSessionSweepJob(pool, logger).Handle},
	}
	cron := []jobs.CronRegistration{
		{Spec: cfg.SessionSweepCron, Task: jobs.NewSessionSweepTask()},
	}

	if cfg.BackupEnabled() {
		store, err := backup.NewS3Store(ctx, backup.S3Options{
			Bucket:       cfg.BackupBucket,
			Region:       cfg.BackupRegion,
			Endpoint:     cfg.BackupEndpoint,
			AccessKey:    cfg.BackupAccessKey,
			SecretKey:    cfg.BackupSecretKey,
			UsePathStyle: cfg.BackupUsePathStyle,
		})
		if err != nil {
			logger.Error("init backup store", slog.Any("error", err))
			os.Exit(1)
		}
		exporter := backup.NewExporter(logger, pool, store, cfg.BackupPrefix)
		handlers = append(handlers, jobs.TaskHandler{Type: jobs.TaskBackupRun, Handler: jobs.NewBackupJob(exporter, logger).Handle})
		cron = append(cron, jobs.CronRegistration{Spec: cfg.BackupCron, Task: jobs.NewBackupTask()})
	} else {
		logger.Info("backup disabled, no bucket configured")
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  handlers,
		Cron:      cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
