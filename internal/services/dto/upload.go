package dto

import (
	"mime/multipart"
	"time"

	"shortsale_backend/internal/models"
)

// ---------------- Requests ----------------

// UploadFileRequest - multipart запрос загрузки документа
type UploadFileRequest struct {
	DocType           string                  `form:"doc_type" binding:"required,max=120"`
	DocumentRequestID *string                 `form:"document_request_id"`
	Visibility        models.UploadVisibility `form:"visibility" validate:"is-upload-visibility"`
	File              *multipart.FileHeader   `json:"-"` // сам файл, не биндится из формы
}

// ---------------- Responses ----------------

type UploadResponse struct {
	ID                string                  `json:"id"`
	TransactionID     string                  `json:"transaction_id"`
	DocumentRequestID *string                 `json:"document_request_id,omitempty"`
	UploaderID        string                  `json:"uploader_id"`
	UploaderName      string                  `json:"uploader_name,omitempty"`
	DocType           string                  `json:"doc_type"`
	OriginalName      string                  `json:"original_name"`
	URL               string                  `json:"url"`
	MimeType          string                  `json:"mime_type"`
	Size              int64                   `json:"size"`
	Visibility        models.UploadVisibility `json:"visibility"`
	CreatedAt         time.Time               `json:"created_at"`
}

type UploadListResponse struct {
	Data  []UploadResponse `json:"data"`
	Total int64            `json:"total"`
}

// SignedURLResponse - временная ссылка на приватный файл
type SignedURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
