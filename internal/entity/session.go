package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is one logged-in browser. LastLogin doubles as the anti-spoof
// marker: it is stored at second precision and must equal the iat claim of
// the session token exactly, so LastLogin and the token are always stamped
// together from the same truncated instant.
type Session struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID string    `gorm:"type:varchar(20);not null;index"`
	User   User      `gorm:"constraint:OnDelete:CASCADE"`

	Name      string  `gorm:"type:varchar(100)"`
	IPAddress *string `gorm:"type:varchar(45)"`
	Device    string  `gorm:"type:varchar(20)"`

	LastLogin time.Time `gorm:"not null"`
	ExpiresAt time.Time

	CreatedAt time.Time
}
