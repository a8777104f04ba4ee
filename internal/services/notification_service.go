package services

import (
	"errors"

	"shortsale_backend/internal/auth"
	"shortsale_backend/internal/models"
	"shortsale_backend/internal/repositories"
	"shortsale_backend/internal/services/dto"
	"shortsale_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// NotificationService backs the in-app feed and device registration.
// Rows are produced by the event dispatcher, this service only reads
// and marks them.
type NotificationService interface {
	List(db *gorm.DB, principal auth.Principal, criteria repositories.NotificationCriteria) (*dto.NotificationListResponse, error)
	MarkRead(db *gorm.DB, principal auth.Principal, notificationID string) error
	UnreadCount(db *gorm.DB, principal auth.Principal) (*dto.UnreadCountResponse, error)
	RegisterDevice(db *gorm.DB, principal auth.Principal, req dto.RegisterDeviceRequest) error
	RemoveDevice(db *gorm.DB, principal auth.Principal, token string) error
}

type NotificationServiceImpl struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
) NotificationService {
	return &NotificationServiceImpl{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
	}
}

func (s *NotificationServiceImpl) List(db *gorm.DB, principal auth.Principal, criteria repositories.NotificationCriteria) (*dto.NotificationListResponse, error) {
	user, err := s.requireUser(db, principal)
	if err != nil {
		return nil, err
	}

	// Лента показывает email-копии; push-строки той же рассылки
	// иначе дублировали бы каждую запись.
	if criteria.Channel == "" {
		criteria.Channel = models.NotificationChannelEmail
	}

	notifications, total, err := s.notificationRepo.FindByRecipient(db, user.ID, criteria)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	data := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		data = append(data, toNotificationResponse(&notifications[i]))
	}

	return &dto.NotificationListResponse{Data: data, Total: total}, nil
}

func (s *NotificationServiceImpl) MarkRead(db *gorm.DB, principal auth.Principal, notificationID string) error {
	user, err := s.requireUser(db, principal)
	if err != nil {
		return err
	}

	// recipient_id входит в WHERE, чужую запись пометить нельзя
	if err := s.notificationRepo.MarkAsRead(db, notificationID, user.ID); err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *NotificationServiceImpl) UnreadCount(db *gorm.DB, principal auth.Principal) (*dto.UnreadCountResponse, error) {
	user, err := s.requireUser(db, principal)
	if err != nil {
		return nil, err
	}

	count, err := s.notificationRepo.CountUnread(db, user.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.UnreadCountResponse{Count: count}, nil
}

func (s *NotificationServiceImpl) RegisterDevice(db *gorm.DB, principal auth.Principal, req dto.RegisterDeviceRequest) error {
	user, err := s.requireUser(db, principal)
	if err != nil {
		return err
	}

	token := &models.DeviceToken{
		UserID:   user.ID,
		Token:    req.Token,
		Platform: req.Platform,
	}
	if err := s.userRepo.SaveDeviceToken(db, token); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *NotificationServiceImpl) RemoveDevice(db *gorm.DB, principal auth.Principal, token string) error {
	user, err := s.requireUser(db, principal)
	if err != nil {
		return err
	}

	if err := s.userRepo.DeleteDeviceToken(db, user.ID, token); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *NotificationServiceImpl) requireUser(db *gorm.DB, principal auth.Principal) (*models.User, error) {
	user, err := resolvePrincipalUser(db, s.userRepo, principal)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewUnauthenticatedError("Unknown user")
		}
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}

// ---------------- Mapping ----------------

func toNotificationResponse(n *models.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:            n.ID,
		TransactionID: n.TransactionID,
		Type:          n.Type,
		Channel:       n.Channel,
		Subject:       n.Subject,
		Body:          n.Body,
		Data:          n.Data,
		Status:        n.Status,
		IsRead:        n.IsRead,
		ReadAt:        n.ReadAt,
		CreatedAt:     n.CreatedAt,
	}
}
