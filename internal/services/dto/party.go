package dto

import (
	"time"

	"shortsale_backend/internal/models"
)

// ---------------- Requests ----------------

type AddPartyRequest struct {
	Email string           `json:"email" binding:"required,email"`
	Name  string           `json:"name" binding:"required,max=120"`
	Role  models.PartyRole `json:"role" binding:"required" validate:"is-party-role"`
}

type UpdatePartyStatusRequest struct {
	Status     models.PartyStatus `json:"status" binding:"required" validate:"is-party-status"`
	LastAction *string            `json:"last_action,omitempty" binding:"omitempty,max=300"`
}

// ---------------- Responses ----------------

type PartyResponse struct {
	ID            string             `json:"id"`
	TransactionID string             `json:"transaction_id"`
	UserID        string             `json:"user_id"`
	Name          string             `json:"name"`
	Email         string             `json:"email"`
	Role          models.PartyRole   `json:"role"`
	Status        models.PartyStatus `json:"status"`
	LastAction    *string            `json:"last_action,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// AddPartyResponse carries the tracker link the negotiator can copy
// in case the invitation email does not arrive.
type AddPartyResponse struct {
	Party      PartyResponse `json:"party"`
	TrackerURL string        `json:"tracker_url"`
	Reinvited  bool          `json:"reinvited"`
}

type PartyListResponse struct {
	Data  []PartyResponse `json:"data"`
	Total int64           `json:"total"`
}
