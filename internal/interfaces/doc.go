// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help find extension
// points and how to implement new functionality.
//
// # Interface Categories
//
// ## Conversion
//
//   - CollectionExporter: Persist the two collections of a run (internal/exporters/generic.go)
//   - CollectionWriter: Replace stored collections in one transaction (internal/exporters/store.go)
//   - RunRecorder: Record run outcomes (internal/pipeline/pipeline.go)
//
// ## Data Access Interfaces
//
//   - DocumentStore: Query and edit stored documents (internal/http/stores.go)
//   - RunStore: Persist and list conversion runs (internal/audit/service.go, internal/http/stores.go)
//
// ## Background Work
//
//   - PipelineRunner: Execute a run from a task or a request (internal/tasks, internal/http)
//   - TaskQueue: Enqueue tasks and read their status (internal/http/stores.go)
//   - RunCleaner: Delete expired run history (internal/tasks/cleanup_runs.go)
//
// # Adding a New Pipeline
//
// Pipelines are data, not code. Either add a built-in to
// internal/converter/builtin.go or declare it in a YAML file passed with
// -definitions (or DEFINITIONS_FILE):
//
//	pipelines:
//	  - name: books
//	    source: datasets/books.csv
//	    parent:
//	      collection: authors
//	      key: [author]
//	      fields:
//	        - {column: author, field: name}
//	    child:
//	      collection: books
//	      reference: author_id
//	      id_columns: [title, year]
//	      fields:
//	        - {column: title, field: title}
//	        - {column: year, field: year, type: int}
//
// # Adding a New Exporter
//
//  1. Implement CollectionExporter in internal/exporters/
//
//     type NDJSONExporter struct {
//         OutputDir string
//     }
//
//     func (e *NDJSONExporter) Name() string { return "ndjson" }
//     func (e *NDJSONExporter) Export(ctx context.Context, result *converter.Result) (ExportResult, error)
//
//     var _ CollectionExporter = (*NDJSONExporter)(nil)
//
//  2. Add it in pipeline.Build (internal/pipeline/setup.go)
//
// # Adding a New Task
//
//  1. Define the task and its processor in internal/tasks/
//
//     type ReindexTask struct{ Collection string }
//
//     func (t ReindexTask) Config() backlite.QueueConfig
//
//  2. Register its queue in entrypoint.go
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
