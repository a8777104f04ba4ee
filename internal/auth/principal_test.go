package auth

import (
	"testing"

	"shortsale_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestSessionPrincipal_Negotiator(t *testing.T) {
	claims := &Claims{
		UserID: "user-1",
		Email:  "negotiator@test.com",
		Role:   models.UserRoleNegotiator,
	}

	p := SessionPrincipal(claims)

	assert.Equal(t, "user-1", p.UserID)
	assert.Equal(t, models.PartyRoleNegotiator, p.Role)
	assert.True(t, p.CanWrite)
	assert.True(t, p.IsNegotiator())
	assert.Equal(t, PrincipalSourceSession, p.Source)
	// Сессия не привязана к сделке, владение проверяют сервисы
	assert.Empty(t, p.TransactionID)
}

func TestSessionPrincipal_Participant(t *testing.T) {
	claims := &Claims{
		UserID: "user-2",
		Email:  "seller@test.com",
		Role:   models.UserRoleParticipant,
	}

	p := SessionPrincipal(claims)

	assert.False(t, p.CanWrite)
	assert.False(t, p.IsNegotiator())
	assert.Empty(t, p.Role)
}

func TestTokenPrincipal(t *testing.T) {
	stored := &models.AccessToken{
		TransactionID: "tx-1",
		Email:         "buyer@test.com",
		Role:          models.PartyRoleBuyer,
		Token:         "opaque",
	}

	p := TokenPrincipal(stored)

	assert.Equal(t, "tx-1", p.TransactionID)
	assert.Equal(t, models.PartyRoleBuyer, p.Role)
	assert.False(t, p.CanWrite)
	assert.False(t, p.IsNegotiator())
	assert.Equal(t, PrincipalSourceToken, p.Source)
	// У токен-принципала нет аккаунта
	assert.Empty(t, p.UserID)
}

func TestScopedTo(t *testing.T) {
	session := Principal{Source: PrincipalSourceSession}
	assert.True(t, session.ScopedTo("tx-1"), "сессия не ограничена одной сделкой")
	assert.True(t, session.ScopedTo("tx-2"))

	token := Principal{Source: PrincipalSourceToken, TransactionID: "tx-1"}
	assert.True(t, token.ScopedTo("tx-1"))
	assert.False(t, token.ScopedTo("tx-2"), "трекер-токен заперт в своей сделке")
}
