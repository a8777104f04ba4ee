package handlers

import (
	"net/http"

	"shortsale_backend/internal/middleware"
	"shortsale_backend/internal/services"
	"shortsale_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type PartyHandler struct {
	*BaseHandler
	partyService services.PartyService
}

func NewPartyHandler(base *BaseHandler, partyService services.PartyService) *PartyHandler {
	return &PartyHandler{
		BaseHandler:  base,
		partyService: partyService,
	}
}

func (h *PartyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	parties := rg.Group("/transactions/:id/parties")
	parties.Use(middleware.AuthMiddleware())
	{
		parties.POST("", h.AddParty)
		parties.GET("", h.ListParties)
		parties.PATCH("/:partyId/status", h.UpdateStatus)
	}
}

// AddParty приглашает участника: создает party, выдает tracker-ссылку
// и ставит приглашение в очередь доставки.
func (h *PartyHandler) AddParty(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	var req dto.AddPartyRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	response, err := h.partyService.AddParty(db, principal, c.Param("id"), req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *PartyHandler) ListParties(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	response, err := h.partyService.ListParties(db, principal, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *PartyHandler) UpdateStatus(c *gin.Context) {
	principal, ok := h.RequirePrincipal(c)
	if !ok {
		return
	}

	var req dto.UpdatePartyStatusRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	response, err := h.partyService.UpdateStatus(db, principal, c.Param("id"), c.Param("partyId"), req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
