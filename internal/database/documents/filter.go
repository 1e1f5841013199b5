package documents

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/docconv/internal/document"
)

// Filter selects documents of a collection. All conditions are ANDed; the
// search term matches if any of the search fields contains it.
type Filter struct {
	// Equals compares typed values. A document.Ref compares against the
	// "$oid" of a reference field, nil matches null or missing fields.
	Equals map[string]any
	// Text compares the textual rendering of a field, so "800" matches the
	// number 800.
	Text map[string]string
	Min  map[string]float64
	Max  map[string]float64

	// Search is a case-insensitive substring. Without SearchFields the
	// whole document body is searched.
	Search       string
	SearchFields []string
}

// FindOptions controls ordering and paging. Without Sort documents come
// back in insertion order.
type FindOptions struct {
	Sort       string
	Descending bool
	Limit      int
	Skip       int
}

// jsonPath turns a dotted field path into a SQLite JSON path with every
// label quoted, so field names may contain spaces or parentheses.
func jsonPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	var b strings.Builder
	b.WriteString("$")
	for _, label := range strings.Split(path, ".") {
		if label == "" || strings.ContainsAny(label, "\"\\") {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
		b.WriteString(`."`)
		b.WriteString(label)
		b.WriteString(`"`)
	}
	return b.String(), nil
}

func (f Filter) apply(query *gorm.DB) (*gorm.DB, error) {
	for _, key := range sortedKeys(f.Equals) {
		path, err := jsonPath(key)
		if err != nil {
			return nil, err
		}
		switch v := f.Equals[key].(type) {
		case nil:
			query = query.Where("json_extract(body, ?) IS NULL", path)
		case document.Ref:
			query = query.Where("json_extract(body, ?) = ?", path+`."$oid"`, string(v))
		case bool:
			query = query.Where("json_extract(body, ?) = ?", path, boolInt(v))
		default:
			query = query.Where("json_extract(body, ?) = ?", path, v)
		}
	}

	for _, key := range sortedKeys(f.Text) {
		path, err := jsonPath(key)
		if err != nil {
			return nil, err
		}
		query = query.Where("CAST(json_extract(body, ?) AS TEXT) = ?", path, f.Text[key])
	}

	for _, key := range sortedKeys(f.Min) {
		path, err := jsonPath(key)
		if err != nil {
			return nil, err
		}
		query = query.Where("json_type(body, ?) IN ('integer', 'real') AND json_extract(body, ?) >= ?", path, path, f.Min[key])
	}

	for _, key := range sortedKeys(f.Max) {
		path, err := jsonPath(key)
		if err != nil {
			return nil, err
		}
		query = query.Where("json_type(body, ?) IN ('integer', 'real') AND json_extract(body, ?) <= ?", path, path, f.Max[key])
	}

	if f.Search == "" {
		return query, nil
	}

	pattern := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
	if len(f.SearchFields) == 0 {
		return query.Where(`LOWER(body) LIKE ? ESCAPE '\'`, pattern), nil
	}

	conds := make([]string, 0, len(f.SearchFields))
	vars := make([]any, 0, 2*len(f.SearchFields))
	for _, field := range f.SearchFields {
		path, err := jsonPath(field)
		if err != nil {
			return nil, err
		}
		conds = append(conds, `LOWER(CAST(json_extract(body, ?) AS TEXT)) LIKE ? ESCAPE '\'`)
		vars = append(vars, path, pattern)
	}
	return query.Where("("+strings.Join(conds, " OR ")+")", vars...), nil
}

func (o FindOptions) apply(query *gorm.DB) (*gorm.DB, error) {
	if o.Sort == "" {
		query = query.Order("position ASC")
	} else {
		path, err := jsonPath(o.Sort)
		if err != nil {
			return nil, err
		}
		direction := "ASC"
		if o.Descending {
			direction = "DESC"
		}
		query = query.Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "json_extract(body, ?) " + direction + ", position ASC",
			Vars:               []any{path},
			WithoutParentheses: true,
		}})
	}

	if o.Limit > 0 {
		query = query.Limit(o.Limit)
	}
	if o.Skip > 0 {
		if o.Limit <= 0 {
			// SQLite only accepts OFFSET after a LIMIT.
			query = query.Limit(math.MaxInt32)
		}
		query = query.Offset(o.Skip)
	}
	return query, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
