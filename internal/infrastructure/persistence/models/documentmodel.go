package models

import (
	"gorm.io/gorm"

	"dinnerd/internal/infrastructure/auth"
	"dinnerd/internal/shared/constants"
)

// DocumentModel represents a binary blob such as an avatar or a recipe
// illustration. Content is deduplicated by its SHA2-256 hash: uploading bytes
// that already exist updates the existing row instead of creating a new one.
type DocumentModel struct {
	Record

	Hash        string  `gorm:"not null;size:64;uniqueIndex" json:"hash"`
	Type        string  `gorm:"not null;size:63" json:"type"`
	Description *string `gorm:"size:127" json:"description,omitempty"`
	Content     []byte  `gorm:"type:longblob;not null" json:"-"`

	// ContentLength is populated by metadata queries that select
	// LENGTH(content) without loading the blob itself.
	ContentLength int64 `gorm:"->;-:migration" json:"-"`
}

// TableName specifies the table name for GORM
func (DocumentModel) TableName() string {
	return constants.TableDocuments
}

// BeforeCreate hook for GORM
func (d *DocumentModel) BeforeCreate(tx *gorm.DB) error {
	if d.Hash == "" {
		d.Hash = auth.Sha2HexBytes(d.Content)
	}
	return nil
}

// Size returns the content length in bytes.
func (d *DocumentModel) Size() int {
	return len(d.Content)
}
