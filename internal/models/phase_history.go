package models

import "time"

// PhaseHistoryEntry is one line of the append-only phase audit log.
// Rows are written inside the same DB transaction as the phase update
// and are never mutated or deleted afterwards, so there is no UpdatedAt.
type PhaseHistoryEntry struct {
	ID            string    `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	TransactionID string    `gorm:"type:uuid;not null;index"`
	Phase         Phase     `gorm:"type:varchar(30);not null"`
	SetByID       string    `gorm:"type:uuid;not null"` // the negotiator who set it
	CreatedAt     time.Time `gorm:"default:now()"`

	SetBy *User `gorm:"foreignKey:SetByID"`
}
