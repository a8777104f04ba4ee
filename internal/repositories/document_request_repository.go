package repositories

import (
	"errors"
	"time"

	"shortsale_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrDocumentRequestNotFound = errors.New("document request not found")
)

type DocumentRequestRepository interface {
	Create(db *gorm.DB, request *models.DocumentRequest) error
	FindByID(db *gorm.DB, id string) (*models.DocumentRequest, error)
	FindByTransaction(db *gorm.DB, transactionID string, criteria DocumentRequestCriteria) ([]models.DocumentRequest, int64, error)
	FindByTransactionSince(db *gorm.DB, transactionID string, since time.Time) ([]models.DocumentRequest, error)
	Update(db *gorm.DB, request *models.DocumentRequest) error
	Delete(db *gorm.DB, id string) error
}

type DocumentRequestCriteria struct {
	Status   *models.DocumentRequestStatus `form:"status"`
	Role     *models.PartyRole             `form:"role"`
	Page     int                           `form:"page" binding:"omitempty,min=1"`
	PageSize int                           `form:"limit" binding:"omitempty,min=1,max=100"`
}

type DocumentRequestRepositoryImpl struct{}

func NewDocumentRequestRepository() DocumentRequestRepository {
	return &DocumentRequestRepositoryImpl{}
}

func (r *DocumentRequestRepositoryImpl) Create(db *gorm.DB, request *models.DocumentRequest) error {
	return db.Create(request).Error
}

func (r *DocumentRequestRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.DocumentRequest, error) {
	var request models.DocumentRequest
	err := db.First(&request, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentRequestNotFound
		}
		return nil, err
	}
	return &request, nil
}

func (r *DocumentRequestRepositoryImpl) FindByTransaction(db *gorm.DB, transactionID string, criteria DocumentRequestCriteria) ([]models.DocumentRequest, int64, error) {
	query := db.Model(&models.DocumentRequest{}).Where("transaction_id = ?", transactionID)

	if criteria.Status != nil {
		query = query.Where("status = ?", *criteria.Status)
	}
	if criteria.Role != nil {
		query = query.Where("assigned_role = ?", *criteria.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := criteria.Page
	if page < 1 {
		page = 1
	}
	pageSize := criteria.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	var requests []models.DocumentRequest
	err := query.Preload("Uploads.Uploader").
		Order("created_at DESC").Limit(pageSize).Offset(offset).Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *DocumentRequestRepositoryImpl) FindByTransactionSince(db *gorm.DB, transactionID string, since time.Time) ([]models.DocumentRequest, error) {
	var requests []models.DocumentRequest
	err := db.Where("transaction_id = ? AND (created_at >= ? OR updated_at >= ?)", transactionID, since, since).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}

func (r *DocumentRequestRepositoryImpl) Update(db *gorm.DB, request *models.DocumentRequest) error {
	result := db.Model(request).Updates(map[string]interface{}{
		"status":        request.Status,
		"due_date":      request.DueDate,
		"revision_note": request.RevisionNote,
		"completed_at":  request.CompletedAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDocumentRequestNotFound
	}
	return nil
}

func (r *DocumentRequestRepositoryImpl) Delete(db *gorm.DB, id string) error {
	result := db.Delete(&models.DocumentRequest{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDocumentRequestNotFound
	}
	return nil
}
