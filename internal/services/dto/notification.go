package dto

import (
	"time"

	"gorm.io/datatypes"

	"shortsale_backend/internal/models"
)

// ---------------- Requests ----------------

type RegisterDeviceRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform" binding:"required,oneof=ios android web"`
}

// ---------------- Responses ----------------

type NotificationResponse struct {
	ID            string                     `json:"id"`
	TransactionID string                     `json:"transaction_id"`
	Type          models.NotificationType    `json:"type"`
	Channel       models.NotificationChannel `json:"channel"`
	Subject       string                     `json:"subject"`
	Body          string                     `json:"body"`
	Data          datatypes.JSON             `json:"data,omitempty"`
	Status        models.NotificationStatus  `json:"status"`
	IsRead        bool                       `json:"is_read"`
	ReadAt        *time.Time                 `json:"read_at,omitempty"`
	CreatedAt     time.Time                  `json:"created_at"`
}

type NotificationListResponse struct {
	Data  []NotificationResponse `json:"data"`
	Total int64                  `json:"total"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
