package dto

import (
	"time"

	"shortsale_backend/internal/models"
)

// ---------------- Requests ----------------

type CreateTransactionRequest struct {
	Title           string `json:"title" binding:"required,max=200"`
	PropertyAddress string `json:"property_address" binding:"required,max=300"`
}

type UpdateTransactionRequest struct {
	Title           *string `json:"title,omitempty" binding:"omitempty,max=200"`
	PropertyAddress *string `json:"property_address,omitempty" binding:"omitempty,max=300"`
}

type ChangePhaseRequest struct {
	Phase models.Phase `json:"phase" binding:"required" validate:"is-phase"`
}

// ---------------- Responses ----------------

type TransactionResponse struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	PropertyAddress string       `json:"property_address"`
	CurrentPhase    models.Phase `json:"current_phase"`
	NegotiatorID    string       `json:"negotiator_id"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// TransactionDetailResponse is the dashboard view of one case.
type TransactionDetailResponse struct {
	TransactionResponse
	Phases           []PhaseStep               `json:"phases"`
	Parties          []PartyResponse           `json:"parties"`
	DocumentRequests []DocumentRequestResponse `json:"document_requests"`
}

type TransactionListResponse struct {
	Data  []TransactionResponse `json:"data"`
	Total int64                 `json:"total"`
}

// PhaseStep is one step of the phase progress bar.
type PhaseStep struct {
	Key     models.Phase `json:"key"`
	Current bool         `json:"current"`
}

type PhaseHistoryEntryResponse struct {
	ID        string       `json:"id"`
	Phase     models.Phase `json:"phase"`
	SetByID   string       `json:"set_by_id"`
	SetByName string       `json:"set_by_name,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type PhaseHistoryResponse struct {
	Data  []PhaseHistoryEntryResponse `json:"data"`
	Total int64                       `json:"total"`
}
