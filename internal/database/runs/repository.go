package runs

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/docconv/internal/entities"
)

var ErrNotFound = errors.New("run not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SaveRun stores a finished conversion run.
func (r *Repository) SaveRun(ctx context.Context, run *entities.ConversionRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = run.StartedAt
	}
	return r.db.WithContext(ctx).Create(run).Error
}

// GetRuns retrieves paginated runs, most recent first. An empty pipeline
// name lists runs of every pipeline.
func (r *Repository) GetRuns(ctx context.Context, pipeline string, limit, offset int) ([]entities.ConversionRun, int64, error) {
	var runs []entities.ConversionRun
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.ConversionRun{})
	if pipeline != "" {
		query = query.Where("pipeline = ?", pipeline)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("started_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&runs).Error
	return runs, total, err
}

// GetRun retrieves a run by its run id.
func (r *Repository) GetRun(ctx context.Context, runID string) (*entities.ConversionRun, error) {
	var run entities.ConversionRun
	err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// LastSuccessful returns the most recent successful run of a pipeline.
func (r *Repository) LastSuccessful(ctx context.Context, pipeline string) (*entities.ConversionRun, error) {
	var run entities.ConversionRun
	err := r.db.WithContext(ctx).
		Where("pipeline = ? AND status = ?", pipeline, entities.RunStatusSuccess).
		Order("started_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// DeleteOldRuns removes runs started before the specified time.
// Returns the number of deleted runs.
func (r *Repository) DeleteOldRuns(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("started_at < ?", olderThan).Delete(&entities.ConversionRun{})
	return result.RowsAffected, result.Error
}
