package models

import "time"

// DocumentRequest is a tracked ask for one document type, assigned to a
// role rather than a specific user: every party holding the role may
// fulfil it. CreatedAt doubles as the requested timestamp.
// CompletedAt is set exactly while Status == complete.
type DocumentRequest struct {
	BaseModel
	TransactionID string                `gorm:"type:uuid;not null;index"`
	DocType       string                `gorm:"not null"` // "Hardship Letter", "Bank Statement", ...
	AssignedRole  PartyRole             `gorm:"type:varchar(20);not null"`
	Status        DocumentRequestStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	DueDate       *time.Time
	RevisionNote  *string // set when reopened, kept until the next completion
	CompletedAt   *time.Time

	// Relations
	Uploads []Upload `gorm:"foreignKey:DocumentRequestID"`
}
