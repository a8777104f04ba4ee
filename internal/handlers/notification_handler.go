package handlers

import (
	"net/http"

	"shortsale_backend/internal/middleware"
	"shortsale_backend/internal/repositories"
	"shortsale_backend/internal/services"
	"shortsale_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	*BaseHandler
	notificationService services.NotificationService
}

func NewNotificationHandler(base *BaseHandler, notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         base,
		notificationService: notificationService,
	}
}

func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	notifications := rg.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware())
	{
		notifications.GET("", h.GetUserNotifications)
		notifications.GET("/unread-count", h.GetUnreadCount)
		notifications.PATCH("/:notificationId/read", h.MarkAsRead)
	}

	devices := rg.Group("/devices")
	devices.Use(middleware.AuthMiddleware())
	{
		devices.POST("", h.RegisterDevice)
		devices.DELETE("/:token", h.RemoveDevice)
	}
}

func (h *NotificationHandler) GetUserNotifications(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	var criteria repositories.NotificationCriteria
	if !h.BindAndValidate_Query(c, &criteria) {
		return
	}
	criteria.Page, criteria.Limit = ParsePagination(c)

	db := h.GetDB(c)

	response, err := h.notificationService.List(db, principal, criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	response, err := h.notificationService.UnreadCount(db, principal)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	if err := h.notificationService.MarkRead(db, principal, c.Param("notificationId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Notification marked as read",
	})
}

// RegisterDevice сохраняет FCM-токен устройства для push-уведомлений
func (h *NotificationHandler) RegisterDevice(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	var req dto.RegisterDeviceRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	if err := h.notificationService.RegisterDevice(db, principal, req); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Device registered",
	})
}

func (h *NotificationHandler) RemoveDevice(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	if err := h.notificationService.RemoveDevice(db, principal, c.Param("token")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Device removed",
	})
}
