package tasks

import (
	"context"
	"fmt"
	"log"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/docconv/internal/entities"
	"github.com/mrlokans/docconv/internal/metrics"
	"github.com/mrlokans/docconv/internal/pipeline"
)

// PipelineRunner executes a conversion run.
type PipelineRunner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Summary, error)
}

// ConvertPipelineTask regenerates the collections of one pipeline.
type ConvertPipelineTask struct {
	Pipeline string              `json:"pipeline"`
	Trigger  entities.RunTrigger `json:"trigger,omitempty"`
}

// Config returns the queue configuration for conversion tasks, following
// the retry, timeout and retention settings of the client.
func (t ConvertPipelineTask) Config() backlite.QueueConfig {
	settings := currentQueueSettings()
	return backlite.QueueConfig{
		Name:        "convert_pipeline",
		MaxAttempts: settings.MaxRetries,
		Backoff:     settings.RetryDelay,
		Timeout:     settings.TaskTimeout,
		Retention: &backlite.Retention{
			Duration:   settings.RetentionDuration,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ConvertPipelineProcessor creates a processor function for ConvertPipelineTask.
func ConvertPipelineProcessor(runner PipelineRunner) backlite.QueueProcessor[ConvertPipelineTask] {
	return func(ctx context.Context, task ConvertPipelineTask) error {
		if runner == nil {
			return fmt.Errorf("pipeline runner not configured")
		}

		trigger := task.Trigger
		if trigger == "" {
			trigger = entities.RunTriggerTask
		}

		summary, err := runner.Run(ctx, pipeline.Request{
			Pipeline: task.Pipeline,
			Trigger:  trigger,
		})
		if err != nil {
			metrics.TasksProcessed.WithLabelValues("convert_pipeline", "failure").Inc()
			return fmt.Errorf("convert %s: %w", task.Pipeline, err)
		}

		metrics.TasksProcessed.WithLabelValues("convert_pipeline", "success").Inc()
		log.Printf("[TASK] Converted %s: %d rows into %d parents and %d children",
			task.Pipeline, summary.RowsRead, summary.Parents, summary.Children)
		return nil
	}
}

// NewConvertPipelineQueue creates a backlite queue for conversion tasks.
func NewConvertPipelineQueue(runner PipelineRunner) backlite.Queue {
	return backlite.NewQueue(ConvertPipelineProcessor(runner))
}
