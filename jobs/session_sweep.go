package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionSweepJob deletes expired rows from the sessions table. Redis
// drops the live session itself; this keeps the audit trail table from
// growing without bound.
type SessionSweepJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
}

// NewSessionSweepJob initialises the session sweep handler.
func NewSessionSweepJob(pool *pgxpool.Pool, logger *slog.Logger) *SessionSweepJob {
	return &SessionSweepJob{Pool: pool, Logger: logger}
}

// Handle removes sessions whose expiry has passed.
func (j *SessionSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("session sweep: handler not configured")
	}
	tag, err := j.Pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		j.Logger.Error("session sweep failed", slog.Any("error", err))
		return err
	}
	j.Logger.Info("session sweep finished", slog.Int64("removed", tag.RowsAffected()))
	return nil
}
