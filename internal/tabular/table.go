// Package tabular loads flat CSV sources into memory.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const utf8BOM = "\ufeff"

// LoadError reports an unreadable or malformed source. Line and Column are
// set when the problem is tied to a specific record or cell.
type LoadError struct {
	Path   string
	Line   int
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("load")
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ErrMissingColumn is wrapped by LoadError when a required column is absent.
var ErrMissingColumn = errors.New("missing required column")

// NullTokens are the cell texts read as a missing value. Matching is exact,
// so " NA" or "No Negative" stay text.
var NullTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"null": true,
	"NULL": true,
}

// IsNull reports whether raw cell text stands for a missing value.
func IsNull(v string) bool {
	return NullTokens[v]
}

// Row is one source record. Values are raw cell text; cells matching
// NullTokens are null.
type Row struct {
	Line   int
	values []string
	index  map[string]int
}

// Value returns the cell for column. ok is false for null or unknown cells.
func (r Row) Value(column string) (string, bool) {
	idx, known := r.index[column]
	if !known || idx >= len(r.values) {
		return "", false
	}
	v := r.values[idx]
	if IsNull(v) {
		return "", false
	}
	return v, true
}

// Values returns the cells for columns in order, nulls as empty strings.
func (r Row) Values(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i], _ = r.Value(c)
	}
	return out
}

// Table is an ordered, immutable set of rows sharing one header.
type Table struct {
	Path    string
	Columns []string
	Rows    []Row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Load reads the CSV file at path. Every column in required must be present
// in the header.
func Load(path string, required []string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	table, err := Read(f, required)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	table.Path = path
	return table, nil
}

// Read parses CSV data from r. Records must have as many fields as the
// header.
func Read(r io.Reader, required []string) (*Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, &LoadError{Err: errors.New("empty source: no header row")}
		}
		return nil, &LoadError{Line: 1, Err: fmt.Errorf("failed to read header: %w", err)}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := index[h]; dup {
			return nil, &LoadError{Line: 1, Column: h, Err: errors.New("duplicate column")}
		}
		index[h] = i
	}

	for _, c := range required {
		if _, ok := index[c]; !ok {
			return nil, &LoadError{Line: 1, Column: c, Err: ErrMissingColumn}
		}
	}

	table := &Table{Columns: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, &LoadError{Line: line, Err: err}
		}
		line, _ := reader.FieldPos(0)
		table.Rows = append(table.Rows, Row{Line: line, values: record, index: index})
	}

	return table, nil
}
