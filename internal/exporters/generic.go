package exporters

import (
	"context"

	"github.com/mrlokans/docconv/internal/converter"
)

// CollectionExporter persists the two collections produced by a conversion.
type CollectionExporter interface {
	Name() string
	Export(ctx context.Context, result *converter.Result) (ExportResult, error)
}

type ExportResult struct {
	Target          string   `json:"target"`
	ParentsWritten  int      `json:"parents_written"`
	ChildrenWritten int      `json:"children_written"`
	Files           []string `json:"files,omitempty"`
}
