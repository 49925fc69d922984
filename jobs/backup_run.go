package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sahyadri-hs/backoffice/internal/backup"
)

// BackupJob runs the table snapshot exporter.
type BackupJob struct {
	Exporter *backup.Exporter
	Logger   *slog.Logger
}

// NewBackupJob initialises the backup handler.
func NewBackupJob(exporter *backup.Exporter, logger *slog.Logger) *BackupJob {
	return &BackupJob{Exporter: exporter, Logger: logger}
}

// Handle executes one backup run.
func (j *BackupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Exporter == nil {
		return errors.New("backup: handler not configured")
	}
	start := time.Now()
	if err := j.Exporter.Run(ctx); err != nil {
		j.Logger.Error("backup run failed", slog.Any("error", err))
		return err
	}
	j.Logger.Info("backup run finished", slog.Duration("took", time.Since(start)))
	return nil
}
