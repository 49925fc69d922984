package jobs

import "github.com/hibiken/asynq"

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBackupRun snapshots the core tables to object storage.
	TaskBackupRun = "backup:run"
	// TaskSessionSweep purges expired session rows.
	TaskSessionSweep = "sessions:sweep"
)

// NewBackupTask constructs the nightly backup task. The payload is
// empty; the exporter derives everything from configuration.
func NewBackupTask() *asynq.Task {
	return asynq.NewTask(TaskBackupRun, nil)
}

// NewSessionSweepTask constructs the session cleanup task.
func NewSessionSweepTask() *asynq.Task {
	return asynq.NewTask(TaskSessionSweep, nil)
}
