package handlers

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"shortsale_backend/internal/auth"
	"shortsale_backend/internal/repositories"
	"shortsale_backend/internal/services"
	"shortsale_backend/internal/storage"
	"shortsale_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// FileHandler отдает содержимое загруженных документов. Нужен только
// для локального хранилища: S3 раздает файлы сам по подписанным URL.
type FileHandler struct {
	*BaseHandler
	storage      storage.Storage
	uploadRepo   repositories.UploadRepository
	txRepo       repositories.TransactionRepository
	tokenService services.AccessTokenService
}

func NewFileHandler(
	base *BaseHandler,
	storage storage.Storage,
	uploadRepo repositories.UploadRepository,
	txRepo repositories.TransactionRepository,
	tokenService services.AccessTokenService,
) *FileHandler {
	return &FileHandler{
		BaseHandler:  base,
		storage:      storage,
		uploadRepo:   uploadRepo,
		txRepo:       txRepo,
		tokenService: tokenService,
	}
}

func (h *FileHandler) RegisterRoutes(r *gin.RouterGroup) {
	files := r.Group("/files")
	{
		files.GET("/*path", h.ServeFile)
	}
}

// ServeFile отдает документ по ключу хранилища. Маршрут общий для
// негоциатора (JWT в заголовке) и участников (трекер-токен в query),
// поэтому проверка доступа живет здесь, а не в middleware.
func (h *FileHandler) ServeFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("path"), "/")
	if key == "" {
		apperrors.HandleError(c, apperrors.NewNotFoundError("File not found"))
		return
	}

	db := h.GetDB(c)

	upload, err := h.uploadRepo.FindByPath(db, key)
	if err != nil {
		apperrors.HandleError(c, apperrors.NewNotFoundError("File not found"))
		return
	}

	principal, err := h.filePrincipal(c, db)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	if err := h.authorizeFileAccess(db, principal, upload.TransactionID); err != nil {
		apperrors.HandleError(c, err)
		return
	}

	reader, err := h.storage.Get(c.Request.Context(), upload.Path)
	if err != nil {
		apperrors.HandleError(c, apperrors.NewNotFoundError("File not found in storage"))
		return
	}
	defer reader.Close()

	c.Header("Content-Type", upload.MimeType)
	c.Header("Content-Length", strconv.FormatInt(upload.Size, 10))
	c.Header("ETag", fmt.Sprintf(`"%s"`, upload.ID))

	if c.Query("download") == "true" {
		filename := upload.OriginalName
		if filename == "" {
			filename = filepath.Base(upload.Path)
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	} else {
		c.Header("Content-Disposition", "inline")
	}

	// Stream file to client
	if _, err := io.Copy(c.Writer, reader); err != nil {
		// Заголовки уже ушли, ответ не перепишешь - только лог
		c.Error(err)
	}
}

// filePrincipal восстанавливает личность запрашивающего: сначала
// пробуем Bearer-токен сессии, затем трекер-токен из query.
func (h *FileHandler) filePrincipal(c *gin.Context, db *gorm.DB) (auth.Principal, error) {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		claims, err := auth.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			return auth.Principal{}, apperrors.NewUnauthenticatedError("Invalid or expired token")
		}
		return auth.SessionPrincipal(claims), nil
	}

	if token := c.Query("token"); token != "" {
		stored, err := h.tokenService.Validate(db, token)
		if err != nil {
			return auth.Principal{}, apperrors.NewUnauthenticatedError("Invalid or expired tracker link")
		}
		return auth.TokenPrincipal(stored), nil
	}

	return auth.Principal{}, apperrors.NewUnauthenticatedError("Authentication required")
}

func (h *FileHandler) authorizeFileAccess(db *gorm.DB, principal auth.Principal, transactionID string) error {
	if principal.Source == auth.PrincipalSourceToken {
		if principal.TransactionID != transactionID {
			return apperrors.NewForbiddenError("Access denied")
		}
		return nil
	}

	transaction, err := h.txRepo.FindByID(db, transactionID)
	if err != nil {
		return apperrors.NewForbiddenError("Access denied")
	}
	if transaction.NegotiatorID != principal.UserID {
		return apperrors.NewForbiddenError("Access denied")
	}
	return nil
}
