package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/docconv/internal/converter"
	"github.com/mrlokans/docconv/internal/entities"
	"github.com/mrlokans/docconv/internal/exporters"
	"github.com/mrlokans/docconv/internal/metrics"
	"github.com/mrlokans/docconv/internal/tabular"
)

var ErrNoSource = errors.New("no source file configured")

// RunRecorder stores the outcome of a run.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *entities.ConversionRun, runErr error) error
}

// Request describes a single run.
type Request struct {
	Pipeline   string
	SourcePath string // Overrides the definition's source when set
	Trigger    entities.RunTrigger
	DryRun     bool // Convert without exporting
}

// Summary reports what a run produced.
type Summary struct {
	RunID      string                   `json:"run_id"`
	Pipeline   string                   `json:"pipeline"`
	SourcePath string                   `json:"source_path"`
	RowsRead   int                      `json:"rows_read"`
	Parents    int                      `json:"parents"`
	Children   int                      `json:"children"`
	Exports    []exporters.ExportResult `json:"exports,omitempty"`
	Duration   time.Duration            `json:"duration"`
}

// Pipeline converts registered definitions and exports their results.
type Pipeline struct {
	registry  *converter.Registry
	converter *converter.Converter
	exporters []exporters.CollectionExporter
	recorder  RunRecorder

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a pipeline. recorder may be nil when run history is not kept.
func New(registry *converter.Registry, conv *converter.Converter, recorder RunRecorder, exps ...exporters.CollectionExporter) *Pipeline {
	return &Pipeline{
		registry:  registry,
		converter: conv,
		exporters: exps,
		recorder:  recorder,
		locks:     make(map[string]*sync.Mutex),
	}
}

// Registry returns the definitions the pipeline runs.
func (p *Pipeline) Registry() *converter.Registry {
	return p.registry
}

// Run executes one conversion. Any error aborts the run and is returned;
// the run is recorded either way.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Summary, error) {
	def, err := p.registry.Get(req.Pipeline)
	if err != nil {
		return nil, err
	}

	source := req.SourcePath
	if source == "" {
		source = def.Source
	}
	if source == "" {
		return nil, fmt.Errorf("pipeline %s: %w", def.Name, ErrNoSource)
	}
	trigger := req.Trigger
	if trigger == "" {
		trigger = entities.RunTriggerCLI
	}

	lock := p.lock(def.Name)
	lock.Lock()
	defer lock.Unlock()

	metrics.RunsInFlight.Inc()
	defer metrics.RunsInFlight.Dec()

	run := &entities.ConversionRun{
		RunID:      uuid.NewString(),
		Pipeline:   def.Name,
		Trigger:    trigger,
		SourcePath: source,
		StartedAt:  time.Now(),
	}

	log.Printf("[PIPELINE] %s: run %s started from %s (trigger: %s)", def.Name, run.RunID, source, trigger)

	summary, runErr := p.execute(ctx, def, source, req.DryRun, run)
	run.FinishedAt = time.Now()
	summary.Duration = run.Duration()

	p.observe(def, run, runErr)

	if p.recorder != nil {
		if err := p.recorder.RecordRun(ctx, run, runErr); err != nil {
			log.Printf("[PIPELINE] %s: failed to record run %s: %v", def.Name, run.RunID, err)
		}
	}

	if runErr != nil {
		log.Printf("[PIPELINE] %s: run %s failed after %v: %v", def.Name, run.RunID, summary.Duration, runErr)
		return summary, runErr
	}

	log.Printf("[PIPELINE] %s: run %s finished in %v: %d rows, %d %s, %d %s",
		def.Name, run.RunID, summary.Duration, summary.RowsRead,
		summary.Parents, def.Parent.Collection, summary.Children, def.Child.Collection)
	return summary, nil
}

func (p *Pipeline) execute(ctx context.Context, def converter.Definition, source string, dryRun bool, run *entities.ConversionRun) (*Summary, error) {
	summary := &Summary{RunID: run.RunID, Pipeline: def.Name, SourcePath: source}

	table, err := tabular.Load(source, def.Columns())
	if err != nil {
		return summary, err
	}
	summary.RowsRead = table.Len()
	run.RowsRead = table.Len()

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	result, err := p.converter.Convert(def, table)
	if err != nil {
		return summary, err
	}
	summary.Parents = len(result.Parents)
	summary.Children = len(result.Children)
	run.Parents = summary.Parents
	run.Children = summary.Children

	if dryRun {
		return summary, nil
	}

	for _, exp := range p.exporters {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		res, err := exp.Export(ctx, result)
		if err != nil {
			return summary, fmt.Errorf("%s export: %w", exp.Name(), err)
		}
		if exp.Name() == "json" {
			run.OutputDir = res.Target
		}
		summary.Exports = append(summary.Exports, res)
	}
	return summary, nil
}

func (p *Pipeline) observe(def converter.Definition, run *entities.ConversionRun, runErr error) {
	status := string(entities.RunStatusSuccess)
	if runErr != nil {
		status = string(entities.RunStatusFailed)
	}
	metrics.RunsTotal.WithLabelValues(def.Name, string(run.Trigger), status).Inc()
	metrics.RunDuration.WithLabelValues(def.Name).Observe(run.Duration().Seconds())
	metrics.RowsRead.WithLabelValues(def.Name).Add(float64(run.RowsRead))

	if runErr != nil {
		return
	}
	metrics.DocumentsWritten.WithLabelValues(def.Name, def.Parent.Collection).Add(float64(run.Parents))
	metrics.DocumentsWritten.WithLabelValues(def.Name, def.Child.Collection).Add(float64(run.Children))
	metrics.LastSuccess.WithLabelValues(def.Name).Set(float64(run.FinishedAt.Unix()))
}

func (p *Pipeline) lock(name string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[name]
	if !ok {
		l = &sync.Mutex{}
		p.locks[name] = l
	}
	return l
}
