package audit

import (
	"context"
	"time"

	"github.com/mrlokans/docconv/internal/entities"
)

// RunStore persists conversion runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *entities.ConversionRun) error
	GetRuns(ctx context.Context, pipeline string, limit, offset int) ([]entities.ConversionRun, int64, error)
	GetRun(ctx context.Context, runID string) (*entities.ConversionRun, error)
	LastSuccessful(ctx context.Context, pipeline string) (*entities.ConversionRun, error)
	DeleteOldRuns(ctx context.Context, olderThan time.Time) (int64, error)
}

// Service records the outcome of pipeline runs.
type Service struct {
	repo RunStore
}

// NewService creates a new audit service.
func NewService(repo RunStore) *Service {
	return &Service{repo: repo}
}

// RecordRun stores a finished run. A failed run keeps its error message,
// truncated to the column size.
func (s *Service) RecordRun(ctx context.Context, run *entities.ConversionRun, runErr error) error {
	run.Status = entities.RunStatusSuccess
	if runErr != nil {
		run.Status = entities.RunStatusFailed
		run.ErrorMsg = truncate(runErr.Error(), 500)
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	return s.repo.SaveRun(ctx, run)
}

// GetRuns retrieves paginated runs.
func (s *Service) GetRuns(ctx context.Context, pipeline string, limit, offset int) ([]entities.ConversionRun, int64, error) {
	return s.repo.GetRuns(ctx, pipeline, limit, offset)
}

// GetRun retrieves a single run by its run id.
func (s *Service) GetRun(ctx context.Context, runID string) (*entities.ConversionRun, error) {
	return s.repo.GetRun(ctx, runID)
}

// LastSuccessful returns the latest successful run of a pipeline.
func (s *Service) LastSuccessful(ctx context.Context, pipeline string) (*entities.ConversionRun, error) {
	return s.repo.LastSuccessful(ctx, pipeline)
}

// DeleteOldRuns removes runs older than the specified duration.
func (s *Service) DeleteOldRuns(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldRuns(ctx, cutoff)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
