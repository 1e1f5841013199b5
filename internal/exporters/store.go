package exporters

import (
	"context"
	"fmt"

	"github.com/mrlokans/docconv/internal/converter"
	"github.com/mrlokans/docconv/internal/database/documents"
)

// CollectionWriter replaces stored collections wholesale, all of them or
// none.
type CollectionWriter interface {
	ReplaceCollections(ctx context.Context, replacements ...documents.Replacement) error
}

// StoreExporter loads both collections into the document store in one
// transaction, parents first so that every stored reference resolves.
type StoreExporter struct {
	store CollectionWriter
}

func NewStoreExporter(store CollectionWriter) *StoreExporter {
	return &StoreExporter{store: store}
}

func (e *StoreExporter) Name() string {
	return "store"
}

func (e *StoreExporter) Export(ctx context.Context, result *converter.Result) (ExportResult, error) {
	def := result.Definition

	err := e.store.ReplaceCollections(ctx,
		documents.Replacement{Collection: def.Parent.Collection, Docs: result.Parents},
		documents.Replacement{Collection: def.Child.Collection, RefField: def.Child.Reference, Docs: result.Children},
	)
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to store %s and %s: %w", def.Parent.Collection, def.Child.Collection, err)
	}

	return ExportResult{
		Target:          "store",
		ParentsWritten:  len(result.Parents),
		ChildrenWritten: len(result.Children),
	}, nil
}
