package handlers

import (
	"net/http"

	"shortsale_backend/internal/middleware"
	"shortsale_backend/internal/services"
	"shortsale_backend/internal/services/dto"
	"shortsale_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	*BaseHandler
	uploadService services.UploadService
}

func NewUploadHandler(base *BaseHandler, uploadService services.UploadService) *UploadHandler {
	return &UploadHandler{
		BaseHandler:   base,
		uploadService: uploadService,
	}
}

func (h *UploadHandler) RegisterRoutes(rg *gin.RouterGroup) {
	uploads := rg.Group("/transactions/:id/uploads")
	uploads.Use(middleware.AuthMiddleware())
	{
		uploads.POST("", h.UploadFile)
		uploads.GET("", h.ListUploads)
		uploads.GET("/:uploadId/url", h.GetSignedURL)
		uploads.DELETE("/:uploadId", h.DeleteUpload)
	}
}

// UploadFile - загрузка одного документа (multipart form)
func (h *UploadHandler) UploadFile(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	// Парсим multipart form
	if err := c.Request.ParseMultipartForm(50 << 20); err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("failed to parse form: "+err.Error()))
		return
	}

	// Метаданные приходят полями формы, не JSON
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

	response, err := h.uploadService.Save(c.Request.Context(), h.GetDB(c), principal, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *UploadHandler) ListUploads(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	response, err := h.uploadService.List(db, principal, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetSignedURL - временная ссылка на скачивание, работает и для приватных файлов
func (h *UploadHandler) GetSignedURL(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	response, err := h.uploadService.GetSignedURL(c.Request.Context(), h.GetDB(c), principal, c.Param("id"), c.Param("uploadId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *UploadHandler) DeleteUpload(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	if err := h.uploadService.Delete(c.Request.Context(), h.GetDB(c), principal, c.Param("id"), c.Param("uploadId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Upload deleted",
	})
}
