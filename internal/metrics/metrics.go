// Package metrics provides Prometheus metrics for conversion runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal tracks pipeline runs by outcome
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docconv",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		},
		[]string{"pipeline", "trigger", "status"},
	)

	// RunDuration tracks run duration in seconds
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docconv",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"pipeline"},
	)

	// RowsRead tracks source rows consumed
	RowsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docconv",
			Subsystem: "pipeline",
			Name:      "rows_read_total",
			Help:      "Total number of source rows read",
		},
		[]string{"pipeline"},
	)

	// DocumentsWritten tracks documents produced per collection
	DocumentsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docconv",
			Subsystem: "pipeline",
			Name:      "documents_written_total",
			Help:      "Total number of documents produced by collection",
		},
		[]string{"pipeline", "collection"},
	)

	// LastSuccess records the unix time of the last successful run
	LastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "docconv",
			Subsystem: "pipeline",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		},
		[]string{"pipeline"},
	)

	// RunsInFlight tracks runs currently executing
	RunsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docconv",
			Subsystem: "pipeline",
			Name:      "runs_in_flight",
			Help:      "Number of pipeline runs currently executing",
		},
	)

	// TasksProcessed tracks queued tasks by outcome
	TasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docconv",
			Subsystem: "queue",
			Name:      "tasks_processed_total",
			Help:      "Total number of tasks processed from the queue",
		},
		[]string{"queue", "status"},
	)
)
