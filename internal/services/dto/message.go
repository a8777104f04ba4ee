package dto

import "time"

// ---------------- Requests ----------------

type PostMessageRequest struct {
	Text      string  `json:"text" binding:"required,max=5000"`
	ReplyToID *string `json:"reply_to_id,omitempty"`
}

// ---------------- Responses ----------------

// MessageResponse is one message; top-level ones carry their replies.
type MessageResponse struct {
	ID            string            `json:"id"`
	TransactionID string            `json:"transaction_id"`
	SenderID      *string           `json:"sender_id,omitempty"` // nil = system
	SenderName    string            `json:"sender_name,omitempty"`
	Text          string            `json:"text"`
	ReplyToID     *string           `json:"reply_to_id,omitempty"`
	IsSeedMessage bool              `json:"is_seed_message,omitempty"`
	Replies       []MessageResponse `json:"replies,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

type MessageListResponse struct {
	Data  []MessageResponse `json:"data"`
	Total int64             `json:"total"`
}
