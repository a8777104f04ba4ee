package models

// Party attaches a user to a transaction with a role. One row per
// (transaction, user); re-inviting resets the row instead of adding one.
type Party struct {
	BaseModel
	TransactionID string      `gorm:"type:uuid;not null;uniqueIndex:idx_parties_tx_user"`
	UserID        string      `gorm:"type:uuid;not null;uniqueIndex:idx_parties_tx_user"`
	Role          PartyRole   `gorm:"type:varchar(20);not null"`
	Status        PartyStatus `gorm:"type:varchar(20);not null;default:'invited'"`
	LastAction    *string     // free-form note set by the negotiator
	WelcomeSent   bool        `gorm:"default:false"`

	// Relations
	User *User `gorm:"foreignKey:UserID"`
}
