package dto

import (
	"time"

	"shortsale_backend/internal/models"
)

// ---------------- Requests ----------------

// UpdateSubscriptionRequest - смена email-подписки по tracker-ссылке.
// Указатель, иначе binding "required" режет значение false.
type UpdateSubscriptionRequest struct {
	Subscribed *bool `json:"subscribed" binding:"required"`
}

// ---------------- Responses ----------------

// TrackerViewResponse is everything a party sees when opening their
// tracker link: the case, the phase progress, who else is involved,
// their own document checklist and the message board head.
type TrackerViewResponse struct {
	Transaction      TransactionResponse       `json:"transaction"`
	Role             models.PartyRole          `json:"role"`
	Name             string                    `json:"name,omitempty"`
	Email            string                    `json:"email"`
	Subscribed       bool                      `json:"subscribed"`
	Phases           []PhaseStep               `json:"phases"`
	Parties          []PartyResponse           `json:"parties"`
	DocumentRequests []DocumentRequestResponse `json:"document_requests"`
	Messages         []MessageResponse         `json:"messages"`
}

// TrackerLinkResponse is one issued magic link, listed for the negotiator.
type TrackerLinkResponse struct {
	ID         string           `json:"id"`
	Email      string           `json:"email"`
	Role       models.PartyRole `json:"role"`
	URL        string           `json:"url"`
	ExpiresAt  *time.Time       `json:"expires_at,omitempty"` // nil = permanent
	Subscribed bool             `json:"subscribed"`
	CreatedAt  time.Time        `json:"created_at"`
}

type TrackerLinkListResponse struct {
	Data  []TrackerLinkResponse `json:"data"`
	Total int64                 `json:"total"`
}

// SubscriptionResponse acknowledges an unsubscribe/subscribe call.
type SubscriptionResponse struct {
	Subscribed bool `json:"subscribed"`
}
