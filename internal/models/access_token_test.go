package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessTokenValid(t *testing.T) {
	now := time.Now()

	// Бессрочный токен: ссылка из письма годичной давности должна работать
	permanent := &AccessToken{Token: "abc"}
	assert.True(t, permanent.Valid(now))
	assert.True(t, permanent.Valid(now.Add(365*24*time.Hour)))

	future := now.Add(time.Hour)
	limited := &AccessToken{Token: "abc", ExpiresAt: &future}
	assert.True(t, limited.Valid(now))

	past := now.Add(-time.Minute)
	expired := &AccessToken{Token: "abc", ExpiresAt: &past}
	assert.False(t, expired.Valid(now))

	// Граница: токен, истекающий ровно сейчас, уже не действует
	exact := now
	boundary := &AccessToken{Token: "abc", ExpiresAt: &exact}
	assert.False(t, boundary.Valid(now))
}
