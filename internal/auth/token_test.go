package auth

import (
	"testing"

	"shortsale_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomToken(t *testing.T) {
	first, err := RandomToken()
	require.NoError(t, err)
	assert.Len(t, first, 64) // 32 байта в hex

	second, err := RandomToken()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestTrackerURL(t *testing.T) {
	setTestConfig(t)

	url := TrackerURL("abc123")
	assert.Equal(t, "https://tracker.example.com/t?token=abc123", url)
}

func TestTrackerURL_TrailingSlash(t *testing.T) {
	setTestConfig(t)
	config.AppConfig.Tracker.BaseURL = "https://tracker.example.com/t/"

	// Слэш в конце base_url не должен давать двойной слэш
	url := TrackerURL("abc123")
	assert.Equal(t, "https://tracker.example.com/t?token=abc123", url)
}
