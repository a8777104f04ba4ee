package app

import (
	"context"

	"shortsale_backend/internal/logger"
)

// logDeliveryQueue используется для локальной разработки без Redis.
// Строка notifications остается в статусе queued, доставки не будет.
type logDeliveryQueue struct{}

func (q *logDeliveryQueue) EnqueueDelivery(_ context.Context, notificationID string) error {
	logger.Debug("delivery skipped, queue is not configured", "notification_id", notificationID)
	return nil
}
