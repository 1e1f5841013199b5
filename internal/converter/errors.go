package converter

import (
	"fmt"
	"strings"
)

// ReferentialIntegrityError means a child row's natural key has no derived
// parent. It can only happen if entities were derived from a different
// source than the one being assembled.
type ReferentialIntegrityError struct {
	Line int
	Key  []string
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("line %d: no parent entity for natural key (%s)", e.Line, strings.Join(e.Key, ", "))
}

// DuplicateConflictError is raised under the strict duplicate policy when
// rows sharing a natural key disagree on a parent attribute.
type DuplicateConflictError struct {
	Key       []string
	Column    string
	FirstLine int
	Line      int
	First     string
	Other     string
}

func (e *DuplicateConflictError) Error() string {
	return fmt.Sprintf("natural key (%s): column %q is %q on line %d but %q on line %d",
		strings.Join(e.Key, ", "), e.Column, e.First, e.FirstLine, e.Other, e.Line)
}

// IdentifierCollisionError means two distinct natural keys hashed to the
// same parent identifier.
type IdentifierCollisionError struct {
	ID    string
	Key   []string
	Other []string
}

func (e *IdentifierCollisionError) Error() string {
	return fmt.Sprintf("parent id %s derived from both (%s) and (%s)",
		e.ID, strings.Join(e.Other, ", "), strings.Join(e.Key, ", "))
}
