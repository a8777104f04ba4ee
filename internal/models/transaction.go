package models

// Transaction is the root aggregate: one short sale case owned by
// exactly one negotiator. Child rows cascade when the case is deleted.
type Transaction struct {
	BaseModel
	Title           string `gorm:"not null"`
	PropertyAddress string `gorm:"not null"`
	CurrentPhase    Phase  `gorm:"type:varchar(30);not null;default:'intro'"`
	NegotiatorID    string `gorm:"type:uuid;not null;index"`

	// Relations
	Negotiator       *User               `gorm:"foreignKey:NegotiatorID"`
	Parties          []Party             `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
	DocumentRequests []DocumentRequest   `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
	Messages         []Message           `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
	PhaseHistory     []PhaseHistoryEntry `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
	Uploads          []Upload            `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
	AccessTokens     []AccessToken       `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
}
