package handlers

import (
	"net/http"

	"shortsale_backend/internal/middleware"
	"shortsale_backend/internal/repositories"
	"shortsale_backend/internal/services"
	"shortsale_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

// TransactionHandler обслуживает CRUD сделок и смену фаз.
// Все маршруты только для негоциатора: участники ходят через tracker.
type TransactionHandler struct {
	*BaseHandler
	transactionService services.TransactionService
	tokenService       services.AccessTokenService
}

func NewTransactionHandler(base *BaseHandler, transactionService services.TransactionService, tokenService services.AccessTokenService) *TransactionHandler {
	return &TransactionHandler{
		BaseHandler:        base,
		transactionService: transactionService,
		tokenService:       tokenService,
	}
}

func (h *TransactionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	transactions := rg.Group("/transactions")
	transactions.Use(middleware.AuthMiddleware())
	{
		transactions.POST("", h.Create)
		transactions.GET("", h.List)
		transactions.GET("/:id", h.Get)
		transactions.PATCH("/:id", h.Update)
		transactions.DELETE("/:id", h.Delete)
		transactions.PUT("/:id/phase", h.ChangePhase)
		transactions.GET("/:id/phase-history", h.GetPhaseHistory)
		transactions.GET("/:id/tracker-links", h.ListTrackerLinks)
	}
}

func (h *TransactionHandler) Create(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateTransactionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	response, err := h.transactionService.Create(db, principal, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *TransactionHandler) List(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	var criteria repositories.TransactionCriteria
	if !h.BindAndValidate_Query(c, &criteria) {
		return
	}
	criteria.Page, criteria.PageSize = ParsePagination(c)

	db := h.GetDB(c)

	response, err := h.transactionService.List(db, principal, criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *TransactionHandler) Get(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	response, err := h.transactionService.Get(db, principal, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *TransactionHandler) Update(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	var req dto.UpdateTransactionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	response, err := h.transactionService.Update(db, principal, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *TransactionHandler) Delete(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	if err := h.transactionService.Delete(db, principal, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Transaction deleted",
	})
}

func (h *TransactionHandler) ChangePhase(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	var req dto.ChangePhaseRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	response, err := h.transactionService.ChangePhase(db, principal, c.Param("id"), req.Phase)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *TransactionHandler) GetPhaseHistory(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	response, err := h.transactionService.GetPhaseHistory(db, principal, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListTrackerLinks отдает негоциатору все выданные magic-link ссылки по сделке.
func (h *TransactionHandler) ListTrackerLinks(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	response, err := h.tokenService.ListLinks(db, principal, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
