package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("super_password123")
	require.NoError(t, err)
	assert.NotEqual(t, "super_password123", hash)

	assert.True(t, CheckPasswordHash("super_password123", hash))
	assert.False(t, CheckPasswordHash("wrong_password", hash))
}

func TestCheckPasswordHash_EmptyHash(t *testing.T) {
	// У приглашенных участников пароля нет - логин для них закрыт
	assert.False(t, CheckPasswordHash("anything", ""))
	assert.False(t, CheckPasswordHash("", ""))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("12345678"))
	assert.Error(t, ValidatePassword("1234567"))
	assert.Error(t, ValidatePassword(""))

	// bcrypt работает только с первыми 72 байтами
	assert.Error(t, ValidatePassword(strings.Repeat("a", 73)))
	assert.NoError(t, ValidatePassword(strings.Repeat("a", 72)))
}
