package repositories

import (
	"time"

	"shortsale_backend/internal/models"

	"gorm.io/gorm"
)

type PhaseHistoryRepository interface {
	Create(db *gorm.DB, entry *models.PhaseHistoryEntry) error
	FindByTransaction(db *gorm.DB, transactionID string) ([]models.PhaseHistoryEntry, error)
	FindByTransactionSince(db *gorm.DB, transactionID string, since time.Time) ([]models.PhaseHistoryEntry, error)
	CountByTransaction(db *gorm.DB, transactionID string) (int64, error)
}

type PhaseHistoryRepositoryImpl struct{}

func NewPhaseHistoryRepository() PhaseHistoryRepository {
	return &PhaseHistoryRepositoryImpl{}
}

func (r *PhaseHistoryRepositoryImpl) Create(db *gorm.DB, entry *models.PhaseHistoryEntry) error {
	return db.Create(entry).Error
}

// FindByTransaction returns history in the order transitions happened.
func (r *PhaseHistoryRepositoryImpl) FindByTransaction(db *gorm.DB, transactionID string) ([]models.PhaseHistoryEntry, error) {
	var entries []models.PhaseHistoryEntry
	err := db.Preload("SetBy").
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *PhaseHistoryRepositoryImpl) FindByTransactionSince(db *gorm.DB, transactionID string, since time.Time) ([]models.PhaseHistoryEntry, error) {
	var entries []models.PhaseHistoryEntry
	err := db.Where("transaction_id = ? AND created_at >= ?", transactionID, since).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *PhaseHistoryRepositoryImpl) CountByTransaction(db *gorm.DB, transactionID string) (int64, error) {
	var count int64
	err := db.Model(&models.PhaseHistoryEntry{}).
		Where("transaction_id = ?", transactionID).
		Count(&count).Error
	return count, err
}
