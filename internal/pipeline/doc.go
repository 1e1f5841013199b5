// Package pipeline runs a conversion from a CSV source to its exporters.
//
// # Architecture
//
// A run follows a fixed flow:
//
//	Registry → Definition → tabular.Load → converter.Convert → Exporters → RunRecorder
//
// The Pipeline looks the definition up by name, loads the source with the
// columns the definition requires, converts it and hands the result to each
// configured exporter in order (JSON files first, then the document store
// when one is configured). Every run, failed or not, is recorded as an
// entities.ConversionRun and reflected in the Prometheus metrics.
//
// # Concurrency
//
// Runs of the same pipeline are serialised with a per-pipeline mutex, so
// a scheduled run, a queued task and the file watcher can never stage the
// same output files at once. Different pipelines run concurrently.
//
// # Triggers
//
// Callers state where a run came from (cli, api, task, scheduler, watcher);
// the trigger is stored with the run and used as a metric label.
package pipeline
