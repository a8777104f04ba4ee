package models

// Message is a transaction-scoped note forming a two-level thread:
// top-level posts (negotiator only) and replies (any participant).
// SenderID == nil marks a system message, e.g. the seed welcome post.
type Message struct {
	BaseModel
	TransactionID string  `gorm:"type:uuid;not null;index"`
	SenderID      *string `gorm:"type:uuid;index"`
	Text          string  `gorm:"type:text;not null"`
	ReplyToID     *string `gorm:"type:uuid;index"`
	IsSeedMessage bool    `gorm:"default:false"`

	// Relations
	Sender  *User     `gorm:"foreignKey:SenderID"`
	ReplyTo *Message  `gorm:"foreignKey:ReplyToID"`
	Replies []Message `gorm:"foreignKey:ReplyToID"`
}
