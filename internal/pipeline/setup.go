package pipeline

import (
	"fmt"
	"os"
	"sort"

	"github.com/mrlokans/docconv/internal/converter"
	"github.com/mrlokans/docconv/internal/exporters"
)

// Setup collects what is needed to assemble a Pipeline from configuration
// or command-line flags.
type Setup struct {
	DefinitionsFile string            // Optional YAML with extra definitions
	Sources         map[string]string // Source overrides by pipeline name
	DuplicatePolicy string
	OutputDir       string // Empty disables the JSON exporter

	Store    exporters.CollectionWriter // Optional
	Recorder RunRecorder                // Optional
}

// Build creates the registry, converter and exporters described by s.
func Build(s Setup) (*Pipeline, error) {
	registry := converter.NewRegistry()
	if s.DefinitionsFile != "" {
		if err := registry.RegisterFile(s.DefinitionsFile); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(s.Sources))
	for name := range s.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := registry.SetSource(name, s.Sources[name]); err != nil {
			return nil, fmt.Errorf("source override: %w", err)
		}
	}

	policy, err := converter.ParseDuplicatePolicy(s.DuplicatePolicy)
	if err != nil {
		return nil, err
	}

	var exps []exporters.CollectionExporter
	if s.OutputDir != "" {
		exps = append(exps, exporters.NewJSONExporter(s.OutputDir))
	}
	if s.Store != nil {
		exps = append(exps, exporters.NewStoreExporter(s.Store))
	}

	return New(registry, converter.New(policy), s.Recorder, exps...), nil
}

// Sourced returns the names of pipelines whose source file exists, in
// registry order. Built-in definitions carry default paths that are often
// absent, so unattended runs only consider what is actually there.
func (p *Pipeline) Sourced() []string {
	var names []string
	for _, def := range p.registry.All() {
		if def.Source == "" {
			continue
		}
		if info, err := os.Stat(def.Source); err == nil && !info.IsDir() {
			names = append(names, def.Name)
		}
	}
	return names
}
