package repositories

import (
	"errors"
	"time"

	"shortsale_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
)

type TransactionRepository interface {
	Create(db *gorm.DB, transaction *models.Transaction) error
	FindByID(db *gorm.DB, id string) (*models.Transaction, error)
	FindByNegotiator(db *gorm.DB, negotiatorID string, criteria TransactionCriteria) ([]models.Transaction, int64, error)
	Update(db *gorm.DB, transaction *models.Transaction) error
	UpdatePhase(db *gorm.DB, id string, phase models.Phase) error
	Touch(db *gorm.DB, id string) error
	Delete(db *gorm.DB, id string) error
}

type TransactionCriteria struct {
	Phase    *models.Phase `form:"phase"`
	Search   string        `form:"search"`
	Page     int           `form:"page" binding:"omitempty,min=1"`
	PageSize int           `form:"limit" binding:"omitempty,min=1,max=100"`
}

type TransactionRepositoryImpl struct{}

func NewTransactionRepository() TransactionRepository {
	return &TransactionRepositoryImpl{}
}

func (r *TransactionRepositoryImpl) Create(db *gorm.DB, transaction *models.Transaction) error {
	return db.Create(transaction).Error
}

func (r *TransactionRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := db.First(&transaction, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &transaction, nil
}

func (r *TransactionRepositoryImpl) FindByNegotiator(db *gorm.DB, negotiatorID string, criteria TransactionCriteria) ([]models.Transaction, int64, error) {
	query := db.Model(&models.Transaction{}).Where("negotiator_id = ?", negotiatorID)

	if criteria.Phase != nil {
		query = query.Where("current_phase = ?", *criteria.Phase)
	}
	if criteria.Search != "" {
		search := "%" + criteria.Search + "%"
		query = query.Where("title ILIKE ? OR property_address ILIKE ?", search, search)
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

	var transactions []models.Transaction
	err := query.Order("updated_at DESC").Limit(pageSize).Offset(offset).Find(&transactions).Error
	if err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

func (r *TransactionRepositoryImpl) Update(db *gorm.DB, transaction *models.Transaction) error {
	result := db.Model(transaction).Updates(map[string]interface{}{
		"title":            transaction.Title,
		"property_address": transaction.PropertyAddress,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepositoryImpl) UpdatePhase(db *gorm.DB, id string, phase models.Phase) error {
	result := db.Model(&models.Transaction{}).Where("id = ?", id).Updates(map[string]interface{}{
		"current_phase": phase,
		"updated_at":    time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// Touch bumps updated_at so polling clients see the change
func (r *TransactionRepositoryImpl) Touch(db *gorm.DB, id string) error {
	result := db.Model(&models.Transaction{}).Where("id = ?", id).
		Update("updated_at", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepositoryImpl) Delete(db *gorm.DB, id string) error {
	result := db.Delete(&models.Transaction{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}
