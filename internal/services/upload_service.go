package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"shortsale_backend/internal/auth"
	"shortsale_backend/internal/config"
	"shortsale_backend/internal/logger"
	"shortsale_backend/internal/models"
	"shortsale_backend/internal/repositories"
	"shortsale_backend/internal/services/dto"
	"shortsale_backend/internal/storage"
	"shortsale_backend/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// signedURLTTL - время жизни временной ссылки на приватный документ
const signedURLTTL = 15 * time.Minute

type UploadService interface {
	Save(ctx context.Context, db *gorm.DB, principal auth.Principal, transactionID string, req *dto.UploadFileRequest) (*dto.UploadResponse, error)
	List(db *gorm.DB, principal auth.Principal, transactionID string) (*dto.UploadListResponse, error)
	GetSignedURL(ctx context.Context, db *gorm.DB, principal auth.Principal, transactionID, uploadID string) (*dto.SignedURLResponse, error)
	Delete(ctx context.Context, db *gorm.DB, principal auth.Principal, transactionID, uploadID string) error
}

type UploadServiceImpl struct {
	txRepo      repositories.TransactionRepository
	partyRepo   repositories.PartyRepository
	requestRepo repositories.DocumentRequestRepository
	uploadRepo  repositories.UploadRepository
	userRepo    repositories.UserRepository
	storage     storage.Storage
}

func NewUploadService(
	txRepo repositories.TransactionRepository,
	partyRepo repositories.PartyRepository,
	requestRepo repositories.DocumentRequestRepository,
	uploadRepo repositories.UploadRepository,
	userRepo repositories.UserRepository,
	store storage.Storage,
) UploadService {
	return &UploadServiceImpl{
		txRepo:      txRepo,
		partyRepo:   partyRepo,
		requestRepo: requestRepo,
		uploadRepo:  uploadRepo,
		userRepo:    userRepo,
		storage:     store,
	}
}

// Save stores the document and its metadata row atomically: the row is
// written inside a transaction that commits only after the bytes are in
// storage, and a commit failure removes the just-saved object.
// Linking an upload to a document request does NOT complete the
// request; the completion is a separate, explicit status change.
func (s *UploadServiceImpl) Save(ctx context.Context, db *gorm.DB, principal auth.Principal, transactionID string, req *dto.UploadFileRequest) (*dto.UploadResponse, error) {
	transaction, err := loadScopedTransaction(db, s.txRepo, s.partyRepo, principal, transactionID)
	if err != nil {
		return nil, err
	}

	if req.File == nil {
		return nil, apperrors.NewBadRequestError("file is required")
	}

	cfg := config.GetConfig()
	if req.File.Size > cfg.Upload.MaxSize {
		return nil, apperrors.ErrFileTooLarge
	}

	mimeType := detectMimeType(req.File)
	if !mimeTypeAllowed(mimeType, cfg.Upload.AllowedTypes) {
		return nil, apperrors.ErrInvalidFileType
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = models.UploadVisibilityShared
	}
	if visibility != models.UploadVisibilityShared && visibility != models.UploadVisibilityPrivate {
		return nil, apperrors.ValidationError("visibility must be shared or private")
	}

	uploader, err := resolvePrincipalUser(db, s.userRepo, principal)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewUnauthenticatedError("Unknown uploader")
		}
		return nil, apperrors.InternalError(err)
	}

	if req.DocumentRequestID != nil {
		request, err := s.requestRepo.FindByID(db, *req.DocumentRequestID)
		if err != nil {
			if errors.Is(err, repositories.ErrDocumentRequestNotFound) {
				return nil, apperrors.ErrNotFound(err)
			}
			return nil, apperrors.InternalError(err)
		}
		if request.TransactionID != transaction.ID {
			return nil, apperrors.ValidationError("document request belongs to another transaction")
		}
		if !auth.CanFulfilDocumentRequest(principal.Role, request.AssignedRole) {
			return nil, apperrors.NewForbiddenError("Only the assigned role may attach files to this request")
		}
	}

	ext := strings.ToLower(filepath.Ext(req.File.Filename))
	key := fmt.Sprintf("transactions/%s/%s%s", transaction.ID, uuid.NewString(), ext)

	upload := &models.Upload{
		TransactionID:     transaction.ID,
		DocumentRequestID: req.DocumentRequestID,
		UploaderID:        uploader.ID,
		DocType:           req.DocType,
		OriginalName:      req.File.Filename,
		Path:              key,
		MimeType:          mimeType,
		Size:              req.File.Size,
		Visibility:        visibility,
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.uploadRepo.Create(tx, upload); err != nil {
		return nil, apperrors.InternalError(err)
	}

	src, err := req.File.Open()
	if err != nil {
		return nil, apperrors.InternalError(fmt.Errorf("open uploaded file: %w", err))
	}
	defer src.Close()

	if err := s.storage.Save(ctx, key, src, mimeType); err != nil {
		return nil, apperrors.InternalError(fmt.Errorf("save file to storage: %w", err))
	}

	if visibility == models.UploadVisibilityShared {
		if url, err := s.storage.GetURL(ctx, key); err == nil {
			upload.URL = url
			tx.Model(upload).Update("url", url)
		}
	}

	if err := tx.Commit().Error; err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			logger.Error("orphan cleanup failed after commit error", "key", key, "error", delErr)
		}
		return nil, apperrors.InternalError(err)
	}

	upload.Uploader = uploader
	resp := toUploadResponse(upload)
	return &resp, nil
}

// List returns the transaction's uploads. Private files are visible
// only to their uploader and the negotiator.
func (s *UploadServiceImpl) List(db *gorm.DB, principal auth.Principal, transactionID string) (*dto.UploadListResponse, error) {
	transaction, err := loadScopedTransaction(db, s.txRepo, s.partyRepo, principal, transactionID)
	if err != nil {
		return nil, err
	}

	uploads, err := s.uploadRepo.FindByTransaction(db, transaction.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	viewerID := s.viewerID(db, principal)
	visible := make([]models.Upload, 0, len(uploads))
	for _, upload := range uploads {
		if upload.Visibility == models.UploadVisibilityPrivate &&
			!principal.IsNegotiator() && upload.UploaderID != viewerID {
			continue
		}
		visible = append(visible, upload)
	}

	return &dto.UploadListResponse{
		Data:  toUploadResponses(visible),
		Total: int64(len(visible)),
	}, nil
}

// GetSignedURL issues a short-lived download link. Shared files get one
// too, so the frontend uses a single endpoint for both visibilities.
func (s *UploadServiceImpl) GetSignedURL(ctx context.Context, db *gorm.DB, principal auth.Principal, transactionID, uploadID string) (*dto.SignedURLResponse, error) {
	transaction, err := loadScopedTransaction(db, s.txRepo, s.partyRepo, principal, transactionID)
	if err != nil {
		return nil, err
	}

	upload, err := s.findInTransaction(db, transaction.ID, uploadID)
	if err != nil {
		return nil, err
	}

	if upload.Visibility == models.UploadVisibilityPrivate &&
		!principal.IsNegotiator() && upload.UploaderID != s.viewerID(db, principal) {
		return nil, apperrors.NewForbiddenError("Access denied")
	}

	url, err := s.storage.GetSignedURL(ctx, upload.Path, signedURLTTL)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.SignedURLResponse{
		URL:       url,
		ExpiresAt: time.Now().Add(signedURLTTL),
	}, nil
}

// Delete removes the row first; the stored object is cleaned up after
// the commit and a failure there is only logged.
func (s *UploadServiceImpl) Delete(ctx context.Context, db *gorm.DB, principal auth.Principal, transactionID, uploadID string) error {
	transaction, err := loadScopedTransaction(db, s.txRepo, s.partyRepo, principal, transactionID)
	if err != nil {
		return err
	}

	upload, err := s.findInTransaction(db, transaction.ID, uploadID)
	if err != nil {
		return err
	}

	if !principal.IsNegotiator() && upload.UploaderID != s.viewerID(db, principal) {
		return apperrors.NewForbiddenError("Only the uploader or the negotiator may delete a file")
	}

	if err := s.uploadRepo.Delete(db, uploadID); err != nil {
		if errors.Is(err, repositories.ErrUploadNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}

	if err := s.storage.Delete(ctx, upload.Path); err != nil {
		logger.Warn("stored object not removed", "key", upload.Path, "error", err)
	}

	return nil
}

func (s *UploadServiceImpl) findInTransaction(db *gorm.DB, transactionID, uploadID string) (*models.Upload, error) {
	upload, err := s.uploadRepo.FindByID(db, uploadID)
	if err != nil {
		if errors.Is(err, repositories.ErrUploadNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}
	if upload.TransactionID != transactionID {
		return nil, apperrors.ErrNotFound(repositories.ErrUploadNotFound)
	}
	return upload, nil
}

// viewerID resolves the user id behind the principal; token principals
// carry only an email. Empty when the user row is gone.
func (s *UploadServiceImpl) viewerID(db *gorm.DB, principal auth.Principal) string {
	if principal.UserID != "" {
		return principal.UserID
	}
	user, err := s.userRepo.FindByEmail(db, principal.Email)
	if err != nil {
		return ""
	}
	return user.ID
}

// ---------------- Утилиты ----------------

func detectMimeType(file *multipart.FileHeader) string {
	if mimeType := file.Header.Get("Content-Type"); mimeType != "" {
		return mimeType
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	mimeTypes := map[string]string{
		".pdf":  "application/pdf",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".png":  "image/png",
		".doc":  "application/msword",
		".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		".xls":  "application/vnd.ms-excel",
		".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	}
	if mimeType, ok := mimeTypes[ext]; ok {
		return mimeType
	}
	return "application/octet-stream"
}

func mimeTypeAllowed(mimeType string, allowed []string) bool {
	for _, t := range allowed {
		if mimeType == t {
			return true
		}
	}
	return false
}

// ---------------- Mapping ----------------

func toUploadResponse(upload *models.Upload) dto.UploadResponse {
	resp := dto.UploadResponse{
		ID:                upload.ID,
		TransactionID:     upload.TransactionID,
		DocumentRequestID: upload.DocumentRequestID,
		UploaderID:        upload.UploaderID,
		DocType:           upload.DocType,
		OriginalName:      upload.OriginalName,
		URL:               upload.URL,
		MimeType:          upload.MimeType,
		Size:              upload.Size,
		Visibility:        upload.Visibility,
		CreatedAt:         upload.CreatedAt,
	}
	if upload.Uploader != nil {
		resp.UploaderName = upload.Uploader.Name
	}
	return resp
}

func toUploadResponses(uploads []models.Upload) []dto.UploadResponse {
	data := make([]dto.UploadResponse, 0, len(uploads))
	for i := range uploads {
		data = append(data, toUploadResponse(&uploads[i]))
	}
	return data
}
