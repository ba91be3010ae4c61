package entity

import (
	"time"
)

// User IDs are usernames: 2-20 characters of [A-Za-z0-9_].
type User struct {
	ID       string `gorm:"type:varchar(20);primaryKey"`
	Nickname string `gorm:"type:varchar(32)"`

	Email         string `gorm:"type:varchar(255);index;not null"`
	EmailVerified bool   `gorm:"default:false"`

	PasswordHash string `gorm:"type:text;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Sessions []Session
	Console  *Console
}
