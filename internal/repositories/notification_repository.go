package repositories

import (
	"errors"
	"time"

	"shortsale_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
)

type NotificationRepository interface {
	Create(db *gorm.DB, notification *models.Notification) error
	CreateBatch(db *gorm.DB, notifications []*models.Notification) error
	FindByID(db *gorm.DB, id string) (*models.Notification, error)
	FindByRecipient(db *gorm.DB, userID string, criteria NotificationCriteria) ([]models.Notification, int64, error)
	MarkAsRead(db *gorm.DB, id, userID string) error
	CountUnread(db *gorm.DB, userID string) (int64, error)
	UpdateDelivery(db *gorm.DB, id string, status models.NotificationStatus, sentAt *time.Time, lastError *string) error
}

type NotificationCriteria struct {
	Unread  *bool                      `form:"unread"`
	Type    models.NotificationType    `form:"type"`
	Channel models.NotificationChannel `form:"channel"`
	Page    int                        `form:"page" binding:"omitempty,min=1"`
	Limit   int                        `form:"limit" binding:"omitempty,min=1,max=100"`
}

type NotificationRepositoryImpl struct{}

func NewNotificationRepository() NotificationRepository {
	return &NotificationRepositoryImpl{}
}

func (r *NotificationRepositoryImpl) Create(db *gorm.DB, notification *models.Notification) error {
	return db.Create(notification).Error
}

func (r *NotificationRepositoryImpl) CreateBatch(db *gorm.DB, notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return db.CreateInBatches(notifications, 100).Error
}

func (r *NotificationRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Notification, error) {
	var notification models.Notification
	err := db.First(&notification, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

// FindByRecipient returns the in-app feed of a signed-in user.
func (r *NotificationRepositoryImpl) FindByRecipient(db *gorm.DB, userID string, criteria NotificationCriteria) ([]models.Notification, int64, error) {
	query := db.Model(&models.Notification{}).Where("recipient_id = ?", userID)

	if criteria.Unread != nil && *criteria.Unread {
		query = query.Where("is_read = ?", false)
	}
	if criteria.Type != "" {
		query = query.Where("type = ?", criteria.Type)
	}
	if criteria.Channel != "" {
		query = query.Where("channel = ?", criteria.Channel)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := criteria.Page
	if page < 1 {
		page = 1
	}
	limit := criteria.Limit
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	var notifications []models.Notification
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// MarkAsRead flips the read flag only when the row belongs to userID,
// so one user cannot touch another user's feed.
func (r *NotificationRepositoryImpl) MarkAsRead(db *gorm.DB, id, userID string) error {
	result := db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, userID).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepositoryImpl) CountUnread(db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// UpdateDelivery records the outcome of one delivery attempt.
func (r *NotificationRepositoryImpl) UpdateDelivery(db *gorm.DB, id string, status models.NotificationStatus, sentAt *time.Time, lastError *string) error {
	result := db.Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"sent_at":    sentAt,
			"last_error": lastError,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
