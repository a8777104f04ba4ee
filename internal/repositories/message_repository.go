package repositories

import (
	"errors"
	"time"

	"shortsale_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrMessageNotFound = errors.New("message not found")
)

type MessageRepository interface {
	Create(db *gorm.DB, message *models.Message) error
	FindByID(db *gorm.DB, id string) (*models.Message, error)
	FindThreads(db *gorm.DB, transactionID string, page, pageSize int) ([]models.Message, int64, error)
	FindByTransactionSince(db *gorm.DB, transactionID string, since time.Time) ([]models.Message, error)
}

type MessageRepositoryImpl struct{}

func NewMessageRepository() MessageRepository {
	return &MessageRepositoryImpl{}
}

func (r *MessageRepositoryImpl) Create(db *gorm.DB, message *models.Message) error {
	return db.Create(message).Error
}

func (r *MessageRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Message, error) {
	var message models.Message
	err := db.Preload("Sender").First(&message, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &message, nil
}

// FindThreads returns top-level messages with replies attached, newest thread first.
// Replies inside a thread stay in chronological order.
func (r *MessageRepositoryImpl) FindThreads(db *gorm.DB, transactionID string, page, pageSize int) ([]models.Message, int64, error) {
	query := db.Model(&models.Message{}).
		Where("transaction_id = ? AND reply_to_id IS NULL", transactionID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	var threads []models.Message
	err := query.
		Preload("Sender").
		Preload("Replies", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("messages.created_at ASC")
		}).
		Preload("Replies.Sender").
		Order("created_at DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&threads).Error
	if err != nil {
		return nil, 0, err
	}

	return threads, total, nil
}

func (r *MessageRepositoryImpl) FindByTransactionSince(db *gorm.DB, transactionID string, since time.Time) ([]models.Message, error) {
	var messages []models.Message
	err := db.Preload("Sender").
		Where("transaction_id = ? AND created_at >= ?", transactionID, since).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}
