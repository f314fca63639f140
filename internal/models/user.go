package models

import "time"

// DefaultAvatar is assigned when signup omits an avatar.
const DefaultAvatar = "https://api.dicebear.com/7.x/avataaars/svg?seed=Felix"

// User represents the user model in the database
type User struct {
	Base
	Username         string     `gorm:"not null" json:"username"`
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	Password         string     `gorm:"not null" json:"-"`
	Avatar           string     `json:"avatar"`
	RefreshTokenHash string     `gorm:"size:64" json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
}
