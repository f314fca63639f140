package models

import (
	"time"

	"empire/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for all tables. Rows are hard deleted; the
// trash table is the only soft-delete mechanism, so restores can reuse ids.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// Owned is implemented by every user-scoped row.
type Owned interface {
	OwnerID() string
}
