package cli

import (
	"flag"
	"fmt"
	"path/filepath"

	"github.com/mrlokans/docconv/internal/audit"
	"github.com/mrlokans/docconv/internal/config"
	"github.com/mrlokans/docconv/internal/database"
	"github.com/mrlokans/docconv/internal/database/documents"
	"github.com/mrlokans/docconv/internal/database/runs"
	"github.com/mrlokans/docconv/internal/pipeline"
)

// pipelineOptions are the flags shared by convert and watch.
type pipelineOptions struct {
	Pipeline        string
	InputPath       string
	OutputDir       string
	DefinitionsFile string
	DatabasePath    string
	Duplicates      string
	Verbose         bool
}

func (o *pipelineOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.Pipeline, "pipeline", "", "Pipeline to run (see the pipelines command)")
	fs.StringVar(&o.InputPath, "input", "", "Source CSV file (overrides the pipeline's default source)")
	fs.StringVar(&o.OutputDir, "output-dir", config.DefaultOutputDir, "Directory for the generated <collection>.json files")
	fs.StringVar(&o.DefinitionsFile, "definitions", "", "YAML file with additional pipeline definitions")
	fs.StringVar(&o.DatabasePath, "db", "", "Also load the collections into the document store at this path and record the run")
	fs.StringVar(&o.Duplicates, "duplicates", "first", "Duplicate parent rows policy: first, last or strict")
	fs.BoolVar(&o.Verbose, "verbose", false, "Enable verbose output")
}

// open builds the pipeline. The returned close function releases the
// database, if one was opened.
func (o *pipelineOptions) open() (*pipeline.Pipeline, func(), error) {
	setup := pipeline.Setup{
		DefinitionsFile: o.DefinitionsFile,
		DuplicatePolicy: o.Duplicates,
		OutputDir:       o.OutputDir,
	}
	if o.InputPath != "" && o.Pipeline != "" {
		setup.Sources = map[string]string{o.Pipeline: o.InputPath}
	}

	closeFn := func() {}
	if o.DatabasePath != "" {
		absDBPath, err := filepath.Abs(o.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get absolute path for database: %w", err)
		}
		db, err := database.NewDatabase(absDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		setup.Store = documents.NewRepository(db.DB)
		setup.Recorder = audit.NewService(runs.NewRepository(db.DB))
		closeFn = func() { db.Close() }
	}

	p, err := pipeline.Build(setup)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return p, closeFn, nil
}
