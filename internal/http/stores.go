package http

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/docconv/internal/converter"
	"github.com/mrlokans/docconv/internal/database/documents"
	"github.com/mrlokans/docconv/internal/document"
	"github.com/mrlokans/docconv/internal/entities"
	"github.com/mrlokans/docconv/internal/pipeline"
)

// This file consolidates the interfaces the controllers depend on.
// Each is satisfied by a concrete type wired in entrypoint.

// DocumentStore is the document API surface of documents.Repository.
type DocumentStore interface {
	Find(ctx context.Context, collection string, filter documents.Filter, opts documents.FindOptions) ([]document.Document, error)
	Count(ctx context.Context, collection string, filter documents.Filter) (int64, error)
	Get(ctx context.Context, collection, id string) (document.Document, error)
	InsertOne(ctx context.Context, collection string, doc document.Document) (document.Document, error)
	UpdateOne(ctx context.Context, collection, id string, set document.Document) (document.Document, error)
	DeleteOne(ctx context.Context, collection, id string) error
	Distinct(ctx context.Context, collection, path string) ([]any, error)
	Collections(ctx context.Context) ([]documents.CollectionInfo, error)
}

// RunStore reads recorded conversion runs.
type RunStore interface {
	GetRuns(ctx context.Context, pipeline string, limit, offset int) ([]entities.ConversionRun, int64, error)
	GetRun(ctx context.Context, runID string) (*entities.ConversionRun, error)
	LastSuccessful(ctx context.Context, pipeline string) (*entities.ConversionRun, error)
}

// PipelineRunner runs conversions inline.
type PipelineRunner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Summary, error)
	Registry() *converter.Registry
}

// TaskQueue enqueues background work and reports its status.
type TaskQueue interface {
	Enqueue(task backlite.Task) (string, error)
	StatusString(ctx context.Context, taskID string) (string, error)
}
