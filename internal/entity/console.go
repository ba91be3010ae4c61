package entity

import (
	"time"

	"github.com/google/uuid"
)

// Console is a paired hardware client. TokenIssuedAt is the rotation marker:
// exactly one value is outstanding per console, and any console token whose
// iat does not match it is rejected. A successful refresh advances the marker,
// which kills every previously issued token for the console at once.
type Console struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID string    `gorm:"type:varchar(20);uniqueIndex;not null"`
	User   User      `gorm:"constraint:OnDelete:CASCADE"`

	DeviceName string `gorm:"type:varchar(100)"`

	TokenIssuedAt time.Time `gorm:"not null"`

	CreatedAt time.Time
}
