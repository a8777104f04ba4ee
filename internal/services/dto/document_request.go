package dto

import (
	"time"

	"shortsale_backend/internal/models"
)

// ---------------- Requests ----------------

type CreateDocumentRequestRequest struct {
	DocType      string           `json:"doc_type" binding:"required,max=120"`
	AssignedRole models.PartyRole `json:"assigned_role" binding:"required" validate:"is-party-role"`
	DueDate      *time.Time       `json:"due_date,omitempty"`
}

type UpdateDocumentRequestStatusRequest struct {
	Status       models.DocumentRequestStatus `json:"status" binding:"required" validate:"is-request-status"`
	RevisionNote *string                      `json:"revision_note,omitempty" binding:"omitempty,max=500"`
}

// ---------------- Responses ----------------

type DocumentRequestResponse struct {
	ID            string                       `json:"id"`
	TransactionID string                       `json:"transaction_id"`
	DocType       string                       `json:"doc_type"`
	AssignedRole  models.PartyRole             `json:"assigned_role"`
	Status        models.DocumentRequestStatus `json:"status"`
	DueDate       *time.Time                   `json:"due_date,omitempty"`
	RevisionNote  *string                      `json:"revision_note,omitempty"`
	CompletedAt   *time.Time                   `json:"completed_at,omitempty"`
	Uploads       []UploadResponse             `json:"uploads,omitempty"`
	CreatedAt     time.Time                    `json:"created_at"`
	UpdatedAt     time.Time                    `json:"updated_at"`
}

type DocumentRequestListResponse struct {
	Data  []DocumentRequestResponse `json:"data"`
	Total int64                     `json:"total"`
}
