package handlers

import (
	"net/http"

	"shortsale_backend/internal/middleware"
	"shortsale_backend/internal/repositories"
	"shortsale_backend/internal/services"
	"shortsale_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type DocumentRequestHandler struct {
	*BaseHandler
	requestService services.DocumentRequestService
}

func NewDocumentRequestHandler(base *BaseHandler, requestService services.DocumentRequestService) *DocumentRequestHandler {
	return &DocumentRequestHandler{
		BaseHandler:    base,
		requestService: requestService,
	}
}

func (h *DocumentRequestHandler) RegisterRoutes(rg *gin.RouterGroup) {
	requests := rg.Group("/transactions/:id/document-requests")
	requests.Use(middleware.AuthMiddleware())
	{
		requests.POST("", h.Create)
		requests.GET("", h.List)
		requests.PATCH("/:requestId/status", h.UpdateStatus)
		requests.DELETE("/:requestId", h.Delete)
	}
}

func (h *DocumentRequestHandler) Create(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateDocumentRequestRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	response, err := h.requestService.Create(db, principal, c.Param("id"), req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *DocumentRequestHandler) List(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	var criteria repositories.DocumentRequestCriteria
	if !h.BindAndValidate_Query(c, &criteria) {
		return
	}
	criteria.Page, criteria.PageSize = ParsePagination(c)

	db := h.GetDB(c)

	response, err := h.requestService.List(db, principal, c.Param("id"), criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *DocumentRequestHandler) UpdateStatus(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	var req dto.UpdateDocumentRequestStatusRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	response, err := h.requestService.UpdateStatus(db, principal, c.Param("id"), c.Param("requestId"), req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *DocumentRequestHandler) Delete(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	if err := h.requestService.Delete(db, principal, c.Param("id"), c.Param("requestId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Document request deleted",
	})
}
