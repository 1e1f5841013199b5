package entities

import "time"

// Collection describes a stored document collection. RefField names the
// field holding the parent reference for child collections.
type Collection struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	RefField  string    `gorm:"size:100" json:"ref_field,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Collection) TableName() string {
	return "collections"
}
