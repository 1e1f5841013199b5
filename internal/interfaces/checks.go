package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/docconv/internal/audit"
	"github.com/mrlokans/docconv/internal/database"
	"github.com/mrlokans/docconv/internal/database/documents"
	"github.com/mrlokans/docconv/internal/database/runs"
	"github.com/mrlokans/docconv/internal/exporters"
	"github.com/mrlokans/docconv/internal/http"
	"github.com/mrlokans/docconv/internal/pipeline"
	"github.com/mrlokans/docconv/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// DocumentStore implementations
var _ http.DocumentStore = (*documents.Repository)(nil)
var _ exporters.CollectionWriter = (*documents.Repository)(nil)

// Run history implementations
var _ audit.RunStore = (*runs.Repository)(nil)
var _ http.RunStore = (*audit.Service)(nil)
var _ http.Pinger = (*database.Database)(nil)

// =============================================================================
// Conversion
// =============================================================================

// Exporters
var _ exporters.CollectionExporter = (*exporters.JSONExporter)(nil)
var _ exporters.CollectionExporter = (*exporters.StoreExporter)(nil)

// Run recording
var _ pipeline.RunRecorder = (*audit.Service)(nil)

// Pipeline runners
var _ http.PipelineRunner = (*pipeline.Pipeline)(nil)
var _ tasks.PipelineRunner = (*pipeline.Pipeline)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ http.TaskQueue = (*tasks.Client)(nil)
var _ tasks.RunCleaner = (*audit.Service)(nil)
