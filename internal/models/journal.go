package models

import "time"

// Journal is a free-text entry. Date is the day the entry is about and may
// differ from CreatedAt.
type Journal struct {
	Base
	UserID  string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Title   string    `gorm:"not null" json:"title"`
	Content string    `gorm:"type:text;not null" json:"content"`
	Date    time.Time `gorm:"not null;index" json:"date"`
}

func (j *Journal) OwnerID() string { return j.UserID }
