package converter

import (
	"fmt"
	"strings"

	"github.com/mrlokans/docconv/internal/identity"
	"github.com/mrlokans/docconv/internal/tabular"
)

// DuplicatePolicy decides which row represents a parent entity when several
// source rows share its natural key.
type DuplicatePolicy string

const (
	DuplicateFirst  DuplicatePolicy = "first"  // first occurrence wins (default)
	DuplicateLast   DuplicatePolicy = "last"   // last occurrence wins
	DuplicateStrict DuplicatePolicy = "strict" // disagreement is an error
)

// ParseDuplicatePolicy validates a policy name. Empty means first.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DuplicateFirst:
		return DuplicateFirst, nil
	case DuplicateLast:
		return DuplicateLast, nil
	case DuplicateStrict:
		return DuplicateStrict, nil
	}
	return "", fmt.Errorf("unknown duplicate policy %q (want first, last or strict)", s)
}

// Entity is one de-duplicated parent.
type Entity struct {
	ID   string
	Key  []string
	Row  tabular.Row // representative row
	Line int         // line of the first occurrence
	Rows int         // number of source rows with this key
}

// EntitySet holds parents in first-seen order, indexed by natural key.
type EntitySet struct {
	keyColumns []string
	entities   []*Entity
	index      map[string]int
}

// Len returns the number of distinct parents.
func (s *EntitySet) Len() int {
	return len(s.entities)
}

// Entities returns the parents in first-seen order.
func (s *EntitySet) Entities() []Entity {
	out := make([]Entity, len(s.entities))
	for i, e := range s.entities {
		out[i] = *e
	}
	return out
}

// Lookup finds the parent for a row's natural key.
func (s *EntitySet) Lookup(row tabular.Row) (Entity, bool) {
	idx, ok := s.index[groupKey(keyValues(row, s.keyColumns))]
	if !ok {
		return Entity{}, false
	}
	return *s.entities[idx], true
}

// IDs maps each parent id to its natural key, for consistency checks.
func (s *EntitySet) IDs() map[string][]string {
	out := make(map[string][]string, len(s.entities))
	for _, e := range s.entities {
		out[e.ID] = e.Key
	}
	return out
}

// DeriveEntities collapses the table into one entity per distinct natural
// key. Keys containing nulls use identity.NullToken for those positions.
func DeriveEntities(table *tabular.Table, spec ParentSpec, policy DuplicatePolicy) (*EntitySet, error) {
	set := &EntitySet{
		keyColumns: spec.Key,
		index:      make(map[string]int),
	}
	owners := make(map[string]int)

	for _, row := range table.Rows {
		key := keyValues(row, spec.Key)
		gk := groupKey(key)

		idx, exists := set.index[gk]
		if !exists {
			id := identity.ParentID(key)
			if other, taken := owners[id]; taken {
				return nil, &IdentifierCollisionError{ID: id, Key: key, Other: set.entities[other].Key}
			}
			owners[id] = len(set.entities)
			set.index[gk] = len(set.entities)
			set.entities = append(set.entities, &Entity{
				ID:   id,
				Key:  key,
				Row:  row,
				Line: row.Line,
				Rows: 1,
			})
			continue
		}

		entity := set.entities[idx]
		entity.Rows++

		switch policy {
		case DuplicateLast:
			entity.Row = row
		case DuplicateStrict:
			if err := checkConflict(entity, row, spec.Fields); err != nil {
				return nil, err
			}
		}
	}

	return set, nil
}

func checkConflict(entity *Entity, row tabular.Row, fields []FieldMapping) error {
	for _, f := range fields {
		first, firstOK := entity.Row.Value(f.Column)
		other, otherOK := row.Value(f.Column)
		if first != other || firstOK != otherOK {
			return &DuplicateConflictError{
				Key:       entity.Key,
				Column:    f.Column,
				FirstLine: entity.Row.Line,
				Line:      row.Line,
				First:     first,
				Other:     other,
			}
		}
	}
	return nil
}

func keyValues(row tabular.Row, columns []string) []string {
	key := make([]string, len(columns))
	for i, c := range columns {
		key[i] = identity.Text(row.Value(c))
	}
	return key
}

// groupKey joins key values with the ASCII unit separator. Unlike the "_"
// used for hashing, it is not expected inside CSV text.
func groupKey(values []string) string {
	return strings.Join(values, "\x1f")
}
