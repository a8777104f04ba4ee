package auth

import (
	"shortsale_backend/internal/models"
)

type PrincipalSource string

const (
	PrincipalSourceSession PrincipalSource = "session"
	PrincipalSourceToken   PrincipalSource = "token"
)

// Principal is the mechanism-agnostic identity every authorization check
// works against. A negotiator session and a party tracker token both
// collapse into the same capability view: who, which transaction (empty
// means "any transaction the user owns or participates in"), which party
// role, and whether writes are allowed.
type Principal struct {
	UserID        string
	Email         string
	TransactionID string
	Role          models.PartyRole
	CanWrite      bool
	Source        PrincipalSource
}

// SessionPrincipal builds a principal from verified JWT claims.
func SessionPrincipal(claims *Claims) Principal {
	p := Principal{
		UserID: claims.UserID,
		Email:  claims.Email,
		Source: PrincipalSourceSession,
	}
	if claims.Role == models.UserRoleNegotiator {
		p.Role = models.PartyRoleNegotiator
		p.CanWrite = true
	}
	return p
}

// TokenPrincipal builds a principal from a validated tracker token.
// The scope is pinned to the token's transaction.
func TokenPrincipal(t *models.AccessToken) Principal {
	return Principal{
		Email:         t.Email,
		TransactionID: t.TransactionID,
		Role:          t.Role,
		CanWrite:      t.Role == models.PartyRoleNegotiator,
		Source:        PrincipalSourceToken,
	}
}

// IsNegotiator reports whether the principal holds the privileged role.
func (p Principal) IsNegotiator() bool {
	return p.Role == models.PartyRoleNegotiator
}

// ScopedTo reports whether the principal may even be considered for the
// given transaction. Session principals are unscoped here; ownership and
// membership are checked against the database by the services.
func (p Principal) ScopedTo(transactionID string) bool {
	return p.TransactionID == "" || p.TransactionID == transactionID
}
