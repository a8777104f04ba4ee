package models

import "time"

// AccessToken is a magic-link credential scoping one email+role to one
// transaction's tracker view. Permanent by default (ExpiresAt == nil);
// it outlives Party rows so a re-invited party keeps the same link.
type AccessToken struct {
	BaseModel
	TransactionID string     `gorm:"type:uuid;not null;uniqueIndex:idx_access_tokens_tx_email"`
	Email         string     `gorm:"not null;uniqueIndex:idx_access_tokens_tx_email"`
	Role          PartyRole  `gorm:"type:varchar(20);not null"`
	Token         string     `gorm:"not null;uniqueIndex"`
	ExpiresAt     *time.Time // nil = permanent
	Subscribed    bool       `gorm:"default:true"` // weekly digest opt-in
}

// Valid reports whether the token may be used at the given instant:
// the stored value matched already, so only expiry is checked here.
func (t *AccessToken) Valid(now time.Time) bool {
	return t.ExpiresAt == nil || t.ExpiresAt.After(now)
}
