package converter

import (
	"github.com/mrlokans/docconv/internal/document"
	"github.com/mrlokans/docconv/internal/identity"
	"github.com/mrlokans/docconv/internal/tabular"
)

// AssembleParents builds one parent document per entity, in entity order.
func AssembleParents(spec ParentSpec, set *EntitySet) ([]document.Document, error) {
	docs := make([]document.Document, 0, set.Len())
	for _, e := range set.entities {
		doc := make(document.Document, 0, len(spec.Fields)+1)
		doc = append(doc, document.Field{Key: document.IDField, Value: document.Ref(e.ID)})

		fields, err := mapFields(spec.Fields, e.Row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, append(doc, fields...))
	}
	return docs, nil
}

// AssembleChild builds the child document for one source row.
func AssembleChild(spec ChildSpec, set *EntitySet, row tabular.Row) (document.Document, error) {
	parent, ok := set.Lookup(row)
	if !ok {
		return nil, &ReferentialIntegrityError{Line: row.Line, Key: keyValues(row, set.keyColumns)}
	}

	idFields := make([]string, len(spec.IDColumns))
	for i, c := range spec.IDColumns {
		idFields[i] = identity.Text(row.Value(c))
	}
	childID := identity.ChildID(parent.ID, idFields)

	doc := make(document.Document, 0, len(spec.Fields)+3)
	doc = append(doc,
		document.Field{Key: document.IDField, Value: document.Ref(childID)},
		document.Field{Key: spec.Reference, Value: document.Ref(parent.ID)},
	)

	fields, err := mapFields(spec.Fields, row)
	if err != nil {
		return nil, err
	}
	doc = append(doc, fields...)

	if spec.Embed != nil {
		embedded, err := mapFields(spec.Embed.Fields, row)
		if err != nil {
			return nil, err
		}
		doc = append(doc, document.Field{Key: spec.Embed.Field, Value: embedded})
	}

	return doc, nil
}

// AssembleChildren builds one child document per source row, in row order.
func AssembleChildren(spec ChildSpec, set *EntitySet, table *tabular.Table) ([]document.Document, error) {
	docs := make([]document.Document, 0, table.Len())
	for _, row := range table.Rows {
		doc, err := AssembleChild(spec, set, row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func mapFields(mappings []FieldMapping, row tabular.Row) (document.Document, error) {
	doc := make(document.Document, 0, len(mappings))
	for _, m := range mappings {
		v, err := m.typedValue(row.Value(m.Column))
		if err != nil {
			return nil, &tabular.LoadError{Line: row.Line, Column: m.Column, Err: err}
		}
		doc = append(doc, document.Field{Key: m.Field, Value: v})
	}
	return doc, nil
}
