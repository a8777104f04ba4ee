package email

import (
	"context"

	"shortsale_backend/internal/logger"
)

// Provider определяет интерфейс для отправки email
type Provider interface {
	// Send отправляет одно сообщение. Блокирует до завершения
	// или отмены контекста.
	Send(ctx context.Context, msg *Message) error
}

// LogProvider пишет письма в лог вместо отправки.
// Используется в dev-окружении и в тестах, когда SMTP не настроен.
type LogProvider struct{}

func NewLogProvider() *LogProvider {
	return &LogProvider{}
}

func (p *LogProvider) Send(_ context.Context, msg *Message) error {
	logger.Info("email (log provider)",
		"to", msg.To,
		"subject", msg.Subject,
		"body_size", len(msg.HTMLBody),
	)
	return nil
}

// NewProvider выбирает SMTP или лог-провайдер по конфигурации.
func NewProvider(cfg Config) Provider {
	if cfg.IsConfigured() {
		return NewSMTPProvider(cfg)
	}
	logger.Warn("SMTP not configured, emails will be logged only")
	return NewLogProvider()
}
