package entities

import "time"

// StoredDocument is one document of a collection. Body holds the JSON
// rendering of the document with its field order intact.
type StoredDocument struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	Collection string    `gorm:"uniqueIndex:idx_collection_doc;index;size:100;not null" json:"collection"`
	DocID      string    `gorm:"uniqueIndex:idx_collection_doc;size:64;not null" json:"doc_id"`
	ParentRef  string    `gorm:"index;size:64" json:"parent_ref,omitempty"`
	Position   int       `gorm:"index" json:"position"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (StoredDocument) TableName() string {
	return "documents"
}
