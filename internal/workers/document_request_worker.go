package workers

import (
	"context"
	"time"

	"shortsale_backend/internal/logger"

	"gorm.io/gorm"
)

// DocumentRequestWorker переводит просроченные запросы документов в
// overdue. Это единственное место, где статус overdue выставляется.
type DocumentRequestWorker struct {
	db *gorm.DB
}

func NewDocumentRequestWorker(db *gorm.DB) *DocumentRequestWorker {
	return &DocumentRequestWorker{db: db}
}

// Start запускает фоновую проверку дедлайнов
func (w *DocumentRequestWorker) Start(ctx context.Context) {
	go w.markOverdueRequests(ctx)
}

func (w *DocumentRequestWorker) markOverdueRequests(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("document request worker stopped")
			return
		case <-ticker.C:
			result := w.db.Exec(`
				UPDATE document_requests
				SET status = 'overdue', updated_at = NOW()
				WHERE status = 'pending'
				AND due_date IS NOT NULL
				AND due_date < NOW()
			`)
			if result.Error != nil {
				logger.WorkerLog("document_request", "mark_overdue", result.Error)
			} else if result.RowsAffected > 0 {
				logger.Info("document requests marked overdue", "count", result.RowsAffected)
			}
		}
	}
}
