package http

import (
	"github.com/mrlokans/docconv/internal/database"
)

// RouterConfig contains all dependencies needed to create the HTTP router.
// Optional dependencies left nil disable their endpoints.
type RouterConfig struct {
	Database *database.Database
	Version  string

	Pipelines PipelineRunner
	Documents DocumentStore
	Runs      RunStore

	// Task queue client (optional). Without it pipeline runs execute inline.
	TaskClient TaskQueue

	// Expose /metrics
	Metrics bool
}
