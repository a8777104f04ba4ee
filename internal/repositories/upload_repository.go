package repositories

import (
	"errors"

	"shortsale_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUploadNotFound = errors.New("upload not found")
)

type UploadRepository interface {
	Create(db *gorm.DB, upload *models.Upload) error
	FindByID(db *gorm.DB, id string) (*models.Upload, error)
	FindByPath(db *gorm.DB, path string) (*models.Upload, error)
	FindByTransaction(db *gorm.DB, transactionID string) ([]models.Upload, error)
	FindByDocumentRequest(db *gorm.DB, requestID string) ([]models.Upload, error)
	Delete(db *gorm.DB, id string) error
}

type UploadRepositoryImpl struct{}

func NewUploadRepository() UploadRepository {
	return &UploadRepositoryImpl{}
}

func (r *UploadRepositoryImpl) Create(db *gorm.DB, upload *models.Upload) error {
	return db.Create(upload).Error
}

func (r *UploadRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Upload, error) {
	var upload models.Upload
	err := db.Preload("Uploader").First(&upload, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUploadNotFound
		}
		return nil, err
	}
	return &upload, nil
}

// FindByPath ищет запись по ключу в хранилище. Нужен при раздаче
// файлов: в URL стоит ключ, а не id записи.
func (r *UploadRepositoryImpl) FindByPath(db *gorm.DB, path string) (*models.Upload, error) {
	var upload models.Upload
	err := db.First(&upload, "path = ?", path).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUploadNotFound
		}
		return nil, err
	}
	return &upload, nil
}

func (r *UploadRepositoryImpl) FindByTransaction(db *gorm.DB, transactionID string) ([]models.Upload, error) {
	var uploads []models.Upload
	err := db.Preload("Uploader").
		Where("transaction_id = ?", transactionID).
		Order("created_at DESC").
		Find(&uploads).Error
	return uploads, err
}

func (r *UploadRepositoryImpl) FindByDocumentRequest(db *gorm.DB, requestID string) ([]models.Upload, error) {
	var uploads []models.Upload
	err := db.Where("document_request_id = ?", requestID).
		Order("created_at DESC").
		Find(&uploads).Error
	return uploads, err
}

func (r *UploadRepositoryImpl) Delete(db *gorm.DB, id string) error {
	result := db.Delete(&models.Upload{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUploadNotFound
	}
	return nil
}
