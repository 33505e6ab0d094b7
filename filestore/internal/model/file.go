package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StoredFile is one immutable content-addressed payload. Hash is the MD5 of
// the raw bytes and carries a unique index, so two uploads of identical bytes
// always resolve to a single row. Location points at the blob inside the
// configured storage backend and is never exposed to callers.
type StoredFile struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	Name      string    `gorm:"size:512;not null" json:"name"`
	Hash      string    `gorm:"size:32;not null;uniqueIndex" json:"hash"`
	Location  string    `gorm:"size:1024;not null" json:"-"`
}

func (f *StoredFile) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
