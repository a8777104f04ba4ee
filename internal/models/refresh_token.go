package models

import "time"

// RefreshToken backs negotiator session rotation.
// Rotation is delete old + create new, there is no revoked state.
type RefreshToken struct {
	BaseModel
	UserID    string    `gorm:"type:uuid;not null;index"`
	Token     string    `gorm:"not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null"`
}
