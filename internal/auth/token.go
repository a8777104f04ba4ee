package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"shortsale_backend/internal/config"
)

// RandomToken возвращает 32 случайных байта в hex.
// Используется для refresh-токенов и токенов трекер-ссылок.
func RandomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// TrackerURL строит публичную magic-link ссылку для токена.
// Единственное место, где задан формат ссылки.
func TrackerURL(token string) string {
	base := strings.TrimRight(config.GetConfig().Tracker.BaseURL, "/")
	return fmt.Sprintf("%s?token=%s", base, token)
}
