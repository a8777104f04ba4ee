package models

import (
	"gorm.io/datatypes"
	"time"
)

// Notification is one queued delivery to one recipient over one channel.
// The row is written when the dispatcher accepts an event (status queued)
// and resolved by the delivery worker (sent/failed), so an event leaves a
// durable trace even when a channel is down. Rows addressed to a user
// also back the in-app feed (IsRead/ReadAt).
type Notification struct {
	BaseModel
	TransactionID  string              `gorm:"type:uuid;index"`
	RecipientID    *string             `gorm:"type:uuid;index"` // nil when only the email is known
	RecipientEmail string              `gorm:"not null;index"`
	Type           NotificationType    `gorm:"type:varchar(40);not null"`
	Channel        NotificationChannel `gorm:"type:varchar(10);not null"`
	Subject        string              `gorm:"not null"`
	Body           string              `gorm:"type:text"`
	Data           datatypes.JSON      `gorm:"type:jsonb"` // {"tracker_url": "...", "phase": "..."}
	Status         NotificationStatus  `gorm:"type:varchar(10);not null;default:'queued'"`
	SentAt         *time.Time
	LastError      *string
	IsRead         bool `gorm:"default:false"`
	ReadAt         *time.Time
}
