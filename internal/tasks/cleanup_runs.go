package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/docconv/internal/metrics"
)

// RunCleaner provides the ability to delete old conversion runs.
type RunCleaner interface {
	DeleteOldRuns(ctx context.Context, retention time.Duration) (int64, error)
}

// CleanupRunsTask removes run history older than the configured retention period.
type CleanupRunsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for run cleanup tasks. Cleanup is
// short, so only attempts and retention follow the client settings.
func (t CleanupRunsTask) Config() backlite.QueueConfig {
	settings := currentQueueSettings()
	return backlite.QueueConfig{
		Name:        "cleanup_runs",
		MaxAttempts: settings.MaxRetries,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   settings.RetentionDuration,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupRunsProcessor creates a processor function for CleanupRunsTask.
func CleanupRunsProcessor(cleaner RunCleaner) backlite.QueueProcessor[CleanupRunsTask] {
	return func(ctx context.Context, task CleanupRunsTask) error {
		if cleaner == nil {
			return fmt.Errorf("run cleaner not configured")
		}

		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = 30
		}
		retention := time.Duration(retentionDays) * 24 * time.Hour

		deleted, err := cleaner.DeleteOldRuns(ctx, retention)
		if err != nil {
			metrics.TasksProcessed.WithLabelValues("cleanup_runs", "failure").Inc()
			return fmt.Errorf("cleanup runs: %w", err)
		}

		metrics.TasksProcessed.WithLabelValues("cleanup_runs", "success").Inc()
		log.Printf("[TASK] Cleaned up %d runs older than %d days", deleted, retentionDays)
		return nil
	}
}

// NewCleanupRunsQueue creates a backlite queue for run cleanup tasks.
func NewCleanupRunsQueue(cleaner RunCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupRunsProcessor(cleaner))
}
