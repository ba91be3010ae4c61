package entity

import (
	"time"

	"gorm.io/datatypes"
)

type SecurityAction string

const (
	LoginSuccess    SecurityAction = "login_success"
	LoginFailed     SecurityAction = "login_failed"
	Logout          SecurityAction = "logout"
	Reset           SecurityAction = "password_reset"
	SessionRevoked  SecurityAction = "session_revoked"
	ConsolePaired   SecurityAction = "console_paired"
	ConsoleUnlinked SecurityAction = "console_unlinked"
	TokenRefreshed  SecurityAction = "token_refreshed"
	TokenRejected   SecurityAction = "token_rejected"
)

type SecurityLog struct {
	ID uint `gorm:"primaryKey"`

	UserID *string `gorm:"type:varchar(20);index"`

	IPAddress *string        `gorm:"type:varchar(45)"`
	Action    SecurityAction `gorm:"type:varchar(32);not null"`

	Metadata datatypes.JSON

	CreatedAt time.Time
}
