package push

import (
	"context"
	"fmt"

	"shortsale_backend/internal/logger"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Sender доставляет push-уведомления на зарегистрированные устройства.
type Sender interface {
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) (*MulticastResult, error)
}

type MulticastResult struct {
	SuccessCount int
	FailureCount int
}

// ---------------- FCM ----------------

type FCMSender struct {
	client *messaging.Client
}

func NewFCMSender(ctx context.Context, credentialsFile string) (*FCMSender, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init fcm client: %w", err)
	}

	return &FCMSender{client: client}, nil
}

func (s *FCMSender) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) (*MulticastResult, error) {
	if len(tokens) == 0 {
		return &MulticastResult{}, nil
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	response, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("fcm multicast: %w", err)
	}

	return &MulticastResult{
		SuccessCount: response.SuccessCount,
		FailureCount: response.FailureCount,
	}, nil
}

// ---------------- Лог-фоллбек ----------------

// LogSender пишет push в лог. Используется, когда FCM не настроен.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) SendMulticast(_ context.Context, tokens []string, title, _ string, _ map[string]string) (*MulticastResult, error) {
	logger.Info("push (log sender)",
		"tokens", len(tokens),
		"title", title,
	)
	return &MulticastResult{SuccessCount: len(tokens)}, nil
}

// NewSender выбирает FCM или лог-отправитель по конфигурации.
func NewSender(ctx context.Context, credentialsFile string) Sender {
	if credentialsFile == "" {
		logger.Warn("FCM not configured, push notifications will be logged only")
		return NewLogSender()
	}

	sender, err := NewFCMSender(ctx, credentialsFile)
	if err != nil {
		logger.Error("failed to init FCM, falling back to log sender", "error", err)
		return NewLogSender()
	}
	return sender
}
