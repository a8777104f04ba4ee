package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProviderFallsBackToLog(t *testing.T) {
	// Без SMTP хоста письма должны уходить в лог, а не падать
	provider := NewProvider(Config{})
	_, isLog := provider.(*LogProvider)
	assert.True(t, isLog)

	// Хост без адреса отправителя тоже не считается настроенным
	provider = NewProvider(Config{Host: "smtp.example.com"})
	_, isLog = provider.(*LogProvider)
	assert.True(t, isLog)
}

func TestNewProviderSMTP(t *testing.T) {
	provider := NewProvider(Config{
		Host:      "smtp.example.com",
		Port:      587,
		FromEmail: "noreply@example.com",
		FromName:  "Short Sale Tracker",
	})
	_, isSMTP := provider.(*SMTPProvider)
	assert.True(t, isSMTP)
}

func TestLogProviderSend(t *testing.T) {
	provider := NewLogProvider()

	err := provider.Send(context.Background(), &Message{
		To:       "seller@example.com",
		ToName:   "Jane Seller",
		Subject:  "You were added to 123 Main St",
		HTMLBody: "<p>hi</p>",
	})
	assert.NoError(t, err)
}

func TestConfigIsConfigured(t *testing.T) {
	assert.False(t, Config{}.IsConfigured())
	assert.False(t, Config{Host: "smtp.example.com"}.IsConfigured())
	assert.False(t, Config{FromEmail: "noreply@example.com"}.IsConfigured())
	assert.True(t, Config{Host: "smtp.example.com", FromEmail: "noreply@example.com"}.IsConfigured())
}
