package handlers

import (
	"net/http"

	"shortsale_backend/internal/middleware"
	"shortsale_backend/internal/services"
	"shortsale_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	*BaseHandler
	messageService services.MessageService
}

func NewMessageHandler(base *BaseHandler, messageService services.MessageService) *MessageHandler {
	return &MessageHandler{
		BaseHandler:    base,
		messageService: messageService,
	}
}

func (h *MessageHandler) RegisterRoutes(rg *gin.RouterGroup) {
	messages := rg.Group("/transactions/:id/messages")
	messages.Use(middleware.AuthMiddleware())
	{
		messages.POST("", h.Post)
		messages.GET("", h.ListThreads)
	}
}

func (h *MessageHandler) Post(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	var req dto.PostMessageRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	response, err := h.messageService.Post(db, principal, c.Param("id"), req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *MessageHandler) ListThreads(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	page, pageSize := ParsePagination(c)

	db := h.GetDB(c)

	response, err := h.messageService.ListThreads(db, principal, c.Param("id"), page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
