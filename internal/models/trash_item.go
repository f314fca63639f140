package models

import (
	"encoding/json"
	"time"
)

// TrashType names the kind of entity held by a trash item.
type TrashType string

const (
	TrashTypeGoal        TrashType = "goal"
	TrashTypeWorkout     TrashType = "workout"
	TrashTypeTransaction TrashType = "transaction"
	TrashTypeJournal     TrashType = "journal"
)

// TrashItem holds a serialized copy of a deleted entity until it expires.
type TrashItem struct {
	Base
	UserID     string          `gorm:"type:uuid;not null;index:idx_trash_user_trashed,priority:1" json:"user_id"`
	Type       TrashType       `gorm:"type:varchar(20);not null" json:"type"`
	OriginalID string          `gorm:"type:uuid;not null" json:"original_id"`
	Data       json.RawMessage `gorm:"type:jsonb;serializer:json;not null" json:"data"`
	TrashedAt  time.Time       `gorm:"not null;index:idx_trash_user_trashed,priority:2" json:"trashed_at"`
	ExpiresAt  time.Time       `gorm:"not null;index" json:"expires_at"`
}

func (t *TrashItem) OwnerID() string { return t.UserID }
