package push

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSenderFallsBackToLog(t *testing.T) {
	// Без файла с ключами FCM недоступен
	sender := NewSender(context.Background(), "")
	_, isLog := sender.(*LogSender)
	assert.True(t, isLog)

	// Битый путь к ключам тоже не должен валить приложение
	sender = NewSender(context.Background(), "/nonexistent/credentials.json")
	_, isLog = sender.(*LogSender)
	assert.True(t, isLog)
}

func TestLogSenderSendMulticast(t *testing.T) {
	sender := NewLogSender()

	result, err := sender.SendMulticast(context.Background(),
		[]string{"device-1", "device-2"},
		"Phase update", "123 Main St moved to approved", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 0, result.FailureCount)
}

func TestLogSenderEmptyTokens(t *testing.T) {
	sender := NewLogSender()

	result, err := sender.SendMulticast(context.Background(), nil, "t", "b", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.SuccessCount)
}
