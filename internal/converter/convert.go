// Package converter turns a loaded CSV table into a parent and a child
// document collection.
//
// The conversion follows four steps:
//
//	Table → DeriveEntities → AssembleParents
//	                       → AssembleChildren (per row: parent lookup, child id, embed, mapping)
//
// Identifiers come from package identity, so converting the same source twice
// yields identical documents.
package converter

import (
	"fmt"

	"github.com/mrlokans/docconv/internal/document"
	"github.com/mrlokans/docconv/internal/tabular"
)

// Result holds the two generated collections.
type Result struct {
	Definition Definition
	RowsRead   int
	Parents    []document.Document
	Children   []document.Document
}

// Converter runs a definition over a table.
type Converter struct {
	Duplicates DuplicatePolicy
}

// New creates a converter with the given duplicate policy.
func New(policy DuplicatePolicy) *Converter {
	return &Converter{Duplicates: policy}
}

// Convert derives parents and assembles both collections.
func (c *Converter) Convert(def Definition, table *tabular.Table) (*Result, error) {
	set, err := DeriveEntities(table, def.Parent, c.Duplicates)
	if err != nil {
		return nil, fmt.Errorf("derive %s: %w", def.Parent.Collection, err)
	}

	parents, err := AssembleParents(def.Parent, set)
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", def.Parent.Collection, err)
	}

	children, err := AssembleChildren(def.Child, set, table)
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", def.Child.Collection, err)
	}

	return &Result{
		Definition: def,
		RowsRead:   table.Len(),
		Parents:    parents,
		Children:   children,
	}, nil
}
