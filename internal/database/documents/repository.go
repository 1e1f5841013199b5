package documents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/docconv/internal/document"
	"github.com/mrlokans/docconv/internal/entities"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrDuplicateID = errors.New("duplicate document id")
	ErrMissingID   = errors.New("document has no _id")
	ErrImmutableID = errors.New("_id cannot be modified")
	ErrInvalidPath = errors.New("invalid field path")
)

const defaultBatchSize = 500

// CollectionInfo summarises a stored collection.
type CollectionInfo struct {
	entities.Collection
	Documents int64 `json:"documents"`
}

type Repository struct {
	db        *gorm.DB
	batchSize int
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, batchSize: defaultBatchSize}
}

// Replacement is the new content of one collection. RefField names the
// field that references a parent document; empty for parent collections.
type Replacement struct {
	Collection string
	RefField   string
	Docs       []document.Document
}

// ReplaceCollection swaps the whole content of a collection for docs in a
// single transaction. Documents keep their slice order.
func (r *Repository) ReplaceCollection(ctx context.Context, collection, refField string, docs []document.Document) error {
	return r.ReplaceCollections(ctx, Replacement{Collection: collection, RefField: refField, Docs: docs})
}

// ReplaceCollections swaps several collections in one transaction, so
// either all of them are replaced or none is.
func (r *Repository) ReplaceCollections(ctx context.Context, replacements ...Replacement) error {
	rowSets := make([][]entities.StoredDocument, len(replacements))
	for n, rep := range replacements {
		rows, err := newRows(rep)
		if err != nil {
			return fmt.Errorf("collection %s: %w", rep.Collection, err)
		}
		rowSets[n] = rows
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for n, rep := range replacements {
			if err := r.replace(tx, rep, rowSets[n]); err != nil {
				return err
			}
		}
		return nil
	})
}

func newRows(rep Replacement) ([]entities.StoredDocument, error) {
	rows := make([]entities.StoredDocument, 0, len(rep.Docs))
	seen := make(map[string]int, len(rep.Docs))
	for i, doc := range rep.Docs {
		row, err := newRow(rep.Collection, rep.RefField, i, doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		if prev, dup := seen[row.DocID]; dup {
			return nil, fmt.Errorf("documents %d and %d share id %s: %w", prev, i, row.DocID, ErrDuplicateID)
		}
		seen[row.DocID] = i
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *Repository) replace(tx *gorm.DB, rep Replacement, rows []entities.StoredDocument) error {
	if err := tx.Where("collection = ?", rep.Collection).Delete(&entities.StoredDocument{}).Error; err != nil {
		return fmt.Errorf("failed to clear collection %s: %w", rep.Collection, err)
	}
	if len(rows) > 0 {
		if err := tx.CreateInBatches(rows, r.batchSize).Error; err != nil {
			return fmt.Errorf("failed to insert into %s: %w", rep.Collection, translate(err))
		}
	}
	meta := entities.Collection{Name: rep.Collection, RefField: rep.RefField}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"ref_field", "updated_at"}),
	}).Create(&meta).Error
}

// Find returns the documents of a collection matching filter.
func (r *Repository) Find(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]document.Document, error) {
	query, err := filter.apply(r.scope(ctx, collection))
	if err != nil {
		return nil, err
	}
	query, err = opts.apply(query)
	if err != nil {
		return nil, err
	}

	var rows []entities.StoredDocument
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return decodeRows(rows)
}

// FindOne returns the first matching document in insertion order.
func (r *Repository) FindOne(ctx context.Context, collection string, filter Filter) (document.Document, error) {
	docs, err := r.Find(ctx, collection, filter, FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}

// Get returns a document by its _id.
func (r *Repository) Get(ctx context.Context, collection, id string) (document.Document, error) {
	row, err := r.getRow(r.db.WithContext(ctx), collection, id)
	if err != nil {
		return nil, err
	}
	return decodeRow(*row)
}

// InsertOne stores doc at the end of the collection. A document without an
// _id gets a fresh reference as its first field. The stored document is
// returned.
func (r *Repository) InsertOne(ctx context.Context, collection string, doc document.Document) (document.Document, error) {
	if _, ok := doc.Get(document.IDField); !ok {
		doc = append(document.Document{{Key: document.IDField, Value: document.NewRef()}}, doc...)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meta := entities.Collection{Name: collection}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&meta).Error; err != nil {
			return err
		}
		if err := tx.Where("name = ?", collection).First(&meta).Error; err != nil {
			return err
		}

		var next int
		if err := tx.Model(&entities.StoredDocument{}).
			Where("collection = ?", collection).
			Select("COALESCE(MAX(position), -1) + 1").
			Scan(&next).Error; err != nil {
			return err
		}

		row, err := newRow(collection, meta.RefField, next, doc)
		if err != nil {
			return err
		}
		if _, err := r.getRow(tx, collection, row.DocID); err == nil {
			return fmt.Errorf("%w: %s", ErrDuplicateID, row.DocID)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		return translate(tx.Create(&row).Error)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateOne sets top-level fields of a document. Existing fields keep their
// position, new ones are appended.
func (r *Repository) UpdateOne(ctx context.Context, collection, id string, set document.Document) (document.Document, error) {
	if _, ok := set.Get(document.IDField); ok {
		return nil, ErrImmutableID
	}

	var updated document.Document
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := r.getRow(tx, collection, id)
		if err != nil {
			return err
		}
		doc, err := decodeRow(*row)
		if err != nil {
			return err
		}
		for _, f := range set {
			doc = doc.Set(f.Key, f.Value)
		}

		var meta entities.Collection
		if err := tx.Where("name = ?", collection).Limit(1).Find(&meta).Error; err != nil {
			return err
		}
		next, err := newRow(collection, meta.RefField, row.Position, doc)
		if err != nil {
			return err
		}
		updated = doc
		return tx.Model(row).Updates(map[string]any{
			"body":       next.Body,
			"parent_ref": next.ParentRef,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteOne removes a document by its _id.
func (r *Repository) DeleteOne(ctx context.Context, collection, id string) error {
	result := r.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Delete(&entities.StoredDocument{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Distinct returns the distinct values found at path, in order of first
// appearance. Documents without the field are skipped; null is a value.
func (r *Repository) Distinct(ctx context.Context, collection, path string) ([]any, error) {
	jp, err := jsonPath(path)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.WithContext(ctx).Raw(
		`SELECT body -> ? AS value FROM documents
		WHERE collection = ? AND json_type(body, ?) IS NOT NULL
		GROUP BY value ORDER BY MIN(position)`,
		jp, collection, jp,
	).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []any{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		v, err := document.DecodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s value: %w", path, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// Children returns the documents of collection that reference parentID.
func (r *Repository) Children(ctx context.Context, collection, parentID string) ([]document.Document, error) {
	var rows []entities.StoredDocument
	err := r.scope(ctx, collection).
		Where("parent_ref = ?", parentID).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return decodeRows(rows)
}

// Count returns the number of documents matching filter.
func (r *Repository) Count(ctx context.Context, collection string, filter Filter) (int64, error) {
	query, err := filter.apply(r.scope(ctx, collection))
	if err != nil {
		return 0, err
	}
	var count int64
	err = query.Count(&count).Error
	return count, err
}

// Collections lists the known collections with their document counts.
func (r *Repository) Collections(ctx context.Context) ([]CollectionInfo, error) {
	var metas []entities.Collection
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&metas).Error; err != nil {
		return nil, err
	}

	var counts []struct {
		Collection string
		Count      int64
	}
	err := r.db.WithContext(ctx).Model(&entities.StoredDocument{}).
		Select("collection, COUNT(*) AS count").
		Group("collection").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	byName := make(map[string]int64, len(counts))
	for _, c := range counts {
		byName[c.Collection] = c.Count
	}

	infos := make([]CollectionInfo, 0, len(metas))
	for _, m := range metas {
		infos = append(infos, CollectionInfo{Collection: m, Documents: byName[m.Name]})
	}
	return infos, nil
}

func (r *Repository) scope(ctx context.Context, collection string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&entities.StoredDocument{}).Where("collection = ?", collection)
}

func (r *Repository) getRow(tx *gorm.DB, collection, id string) (*entities.StoredDocument, error) {
	var row entities.StoredDocument
	err := tx.Where("collection = ? AND doc_id = ?", collection, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func newRow(collection, refField string, position int, doc document.Document) (entities.StoredDocument, error) {
	id, ok := doc.ID()
	if !ok || id == "" {
		return entities.StoredDocument{}, ErrMissingID
	}
	body, err := document.Encode(doc, "")
	if err != nil {
		return entities.StoredDocument{}, fmt.Errorf("failed to encode document %s: %w", id, err)
	}
	return entities.StoredDocument{
		Collection: collection,
		DocID:      id.String(),
		ParentRef:  parentRef(doc, refField),
		Position:   position,
		Body:       string(body),
	}, nil
}

func parentRef(doc document.Document, refField string) string {
	if refField == "" {
		return ""
	}
	v, _ := doc.Get(refField)
	switch ref := v.(type) {
	case document.Ref:
		return ref.String()
	case string:
		return ref
	}
	return ""
}

func decodeRow(row entities.StoredDocument) (document.Document, error) {
	var doc document.Document
	if err := json.Unmarshal([]byte(row.Body), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s/%s: %w", row.Collection, row.DocID, err)
	}
	return doc, nil
}

func decodeRows(rows []entities.StoredDocument) ([]document.Document, error) {
	docs := make([]document.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return fmt.Errorf("%w: %v", ErrDuplicateID, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicateID, err)
	}
	return err
}
