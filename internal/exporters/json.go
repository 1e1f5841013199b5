package exporters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrlokans/docconv/internal/converter"
	"github.com/mrlokans/docconv/internal/document"
	"github.com/mrlokans/docconv/internal/utils"
)

// WriteError reports a destination that could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// JSONExporter writes each collection to <OutputDir>/<collection>.json as
// an indented array of documents.
//
// Both files are staged next to their destination and renamed into place
// only after both were written and synced, so a failed run never leaves a
// truncated file behind. The two renames are not atomic as a pair: if the
// second one fails, the parent file is already updated.
type JSONExporter struct {
	OutputDir string
}

func NewJSONExporter(outputDir string) *JSONExporter {
	return &JSONExporter{OutputDir: outputDir}
}

func (e *JSONExporter) Name() string {
	return "json"
}

// Path returns the output file of a collection.
func (e *JSONExporter) Path(collection string) string {
	return filepath.Join(e.OutputDir, utils.SanitizeFilename(collection)+".json")
}

type stagedFile struct {
	tmp   string
	final string
}

func (e *JSONExporter) Export(ctx context.Context, result *converter.Result) (ExportResult, error) {
	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return ExportResult{}, &WriteError{Path: e.OutputDir, Err: err}
	}

	outputs := []struct {
		collection string
		docs       []document.Document
	}{
		{result.Definition.Parent.Collection, result.Parents},
		{result.Definition.Child.Collection, result.Children},
	}

	if e.Path(outputs[0].collection) == e.Path(outputs[1].collection) {
		return ExportResult{}, &WriteError{
			Path: e.Path(outputs[0].collection),
			Err:  fmt.Errorf("collections %q and %q share an output file", outputs[0].collection, outputs[1].collection),
		}
	}

	staged := make([]stagedFile, 0, len(outputs))
	cleanup := func() {
		for _, s := range staged {
			os.Remove(s.tmp)
		}
	}

	for _, out := range outputs {
		if err := ctx.Err(); err != nil {
			cleanup()
			return ExportResult{}, err
		}
		final := e.Path(out.collection)
		tmp, err := stage(final, out.docs)
		if err != nil {
			cleanup()
			return ExportResult{}, &WriteError{Path: final, Err: err}
		}
		staged = append(staged, stagedFile{tmp: tmp, final: final})
	}

	files := make([]string, 0, len(staged))
	for i, s := range staged {
		if err := os.Rename(s.tmp, s.final); err != nil {
			for _, rest := range staged[i:] {
				os.Remove(rest.tmp)
			}
			return ExportResult{}, &WriteError{Path: s.final, Err: err}
		}
		files = append(files, s.final)
	}

	return ExportResult{
		Target:          e.OutputDir,
		ParentsWritten:  len(result.Parents),
		ChildrenWritten: len(result.Children),
		Files:           files,
	}, nil
}

// MarshalCollection renders a collection exactly as it is written to disk:
// two-space indentation, no HTML escaping, trailing newline.
func MarshalCollection(docs []document.Document) ([]byte, error) {
	if docs == nil {
		docs = []document.Document{}
	}
	b, err := document.Encode(docs, "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func stage(final string, docs []document.Document) (string, error) {
	data, err := MarshalCollection(docs)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(filepath.Dir(final), "."+filepath.Base(final)+".*.tmp")
	if err != nil {
		return "", err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}
