package handlers

import (
	"net/http"
	"strconv"

	"shortsale_backend/internal/middleware"
	"shortsale_backend/internal/models"
	"shortsale_backend/internal/services"
	"shortsale_backend/internal/services/dto"
	"shortsale_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// TrackerHandler - публичная поверхность для участников сделки.
// Аутентификация здесь не парольная: токен из письма в query-параметре.
type TrackerHandler struct {
	*BaseHandler
	tokenService   services.AccessTokenService
	messageService services.MessageService
	requestService services.DocumentRequestService
	uploadService  services.UploadService
}

func NewTrackerHandler(
	base *BaseHandler,
	tokenService services.AccessTokenService,
	messageService services.MessageService,
	requestService services.DocumentRequestService,
	uploadService services.UploadService,
) *TrackerHandler {
	return &TrackerHandler{
		BaseHandler:    base,
		tokenService:   tokenService,
		messageService: messageService,
		requestService: requestService,
		uploadService:  uploadService,
	}
}

func (h *TrackerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tracker := rg.Group("/tracker")

	// Смена подписки нарочно вне TrackerTokenMiddleware:
	// ссылка "отписаться" из старого письма должна работать и после истечения токена.
	tracker.POST("/subscription", h.UpdateSubscription)

	authed := tracker.Group("")
	authed.Use(middleware.TrackerTokenMiddleware(h.tokenService))
	{
		authed.GET("", h.View)
		authed.POST("/messages", h.PostMessage)
		authed.POST("/document-requests/:requestId/complete", h.CompleteDocumentRequest)
		authed.POST("/uploads", h.UploadFile)
	}
}

// View отдает участнику все, что он видит по своей ссылке:
// сделку, фазы, стороны, его чеклист документов и доску сообщений.
func (h *TrackerHandler) View(c *gin.Context) {
	token, ok := middleware.GetAccessToken(c)
	if !ok {
		apperrors.HandleError(c, apperrors.NewUnauthenticatedError("Tracker token missing"))
		return
	}

	db := h.GetDB(c)

	response, err := h.tokenService.TrackerView(db, token)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *TrackerHandler) PostMessage(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	var req dto.PostMessageRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	response, err := h.messageService.Post(db, principal, principal.TransactionID, req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// CompleteDocumentRequest - участник отмечает свой запрос выполненным.
// Сервис проверяет, что роль токена совпадает с назначенной ролью запроса.
func (h *TrackerHandler) CompleteDocumentRequest(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	req := dto.UpdateDocumentRequestStatusRequest{
		Status: models.DocumentRequestStatusComplete,
	}

	db := h.GetDB(c)

	response, err := h.requestService.UpdateStatus(db, principal, principal.TransactionID, c.Param("requestId"), req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *TrackerHandler) UploadFile(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	if err := c.Request.ParseMultipartForm(50 << 20); err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("failed to parse form: "+err.Error()))
		return
	}

	var req dto.UploadFileRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("no file provided"))
		return
	}
	req.File = fileHeader

	response, err := h.uploadService.Save(c.Request.Context(), h.GetDB(c), principal, principal.TransactionID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// UpdateSubscription принимает и JSON body, и вариант одной ссылкой
// (?token=...&subscribed=false) для кнопки "отписаться" в письме.
func (h *TrackerHandler) UpdateSubscription(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		apperrors.HandleError(c, apperrors.NewUnauthenticatedError("Tracker token missing"))
		return
	}

	var subscribed bool
	if raw := c.Query("subscribed"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			apperrors.HandleError(c, apperrors.NewBadRequestError("subscribed must be true or false"))
			return
		}
		subscribed = parsed
	} else {
		var req dto.UpdateSubscriptionRequest
		if !h.BindAndValidate_JSON(c, &req) {
			return
		}
		subscribed = *req.Subscribed
	}

	db := h.GetDB(c)

	response, err := h.tokenService.SetSubscribed(db, token, subscribed)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
