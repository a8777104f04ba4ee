package repositories

import (
	"errors"

	"shortsale_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrPartyNotFound = errors.New("party not found")
)

type PartyRepository interface {
	Create(db *gorm.DB, party *models.Party) error
	FindByID(db *gorm.DB, id string) (*models.Party, error)
	Find(db *gorm.DB, transactionID, userID string) (*models.Party, error)
	FindByTransaction(db *gorm.DB, transactionID string) ([]models.Party, error)
	FindByTransactionAndRole(db *gorm.DB, transactionID string, role models.PartyRole) ([]models.Party, error)
	FindByUser(db *gorm.DB, userID string) ([]models.Party, error)
	Update(db *gorm.DB, party *models.Party) error
	MarkWelcomeSent(db *gorm.DB, id string) error
}

type PartyRepositoryImpl struct{}

func NewPartyRepository() PartyRepository {
	return &PartyRepositoryImpl{}
}

func (r *PartyRepositoryImpl) Create(db *gorm.DB, party *models.Party) error {
	return db.Create(party).Error
}

func (r *PartyRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Party, error) {
	var party models.Party
	err := db.Preload("User").First(&party, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartyNotFound
		}
		return nil, err
	}
	return &party, nil
}

func (r *PartyRepositoryImpl) Find(db *gorm.DB, transactionID, userID string) (*models.Party, error) {
	var party models.Party
	err := db.Preload("User").
		Where("transaction_id = ? AND user_id = ?", transactionID, userID).
		First(&party).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartyNotFound
		}
		return nil, err
	}
	return &party, nil
}

func (r *PartyRepositoryImpl) FindByTransaction(db *gorm.DB, transactionID string) ([]models.Party, error) {
	var parties []models.Party
	err := db.Preload("User").
		Where("transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&parties).Error
	return parties, err
}

func (r *PartyRepositoryImpl) FindByTransactionAndRole(db *gorm.DB, transactionID string, role models.PartyRole) ([]models.Party, error) {
	var parties []models.Party
	err := db.Preload("User").
		Where("transaction_id = ? AND role = ?", transactionID, role).
		Find(&parties).Error
	return parties, err
}

func (r *PartyRepositoryImpl) FindByUser(db *gorm.DB, userID string) ([]models.Party, error) {
	var parties []models.Party
	err := db.Where("user_id = ?", userID).Find(&parties).Error
	return parties, err
}

func (r *PartyRepositoryImpl) Update(db *gorm.DB, party *models.Party) error {
	result := db.Model(party).Updates(map[string]interface{}{
		"role":        party.Role,
		"status":      party.Status,
		"last_action": party.LastAction,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPartyNotFound
	}
	return nil
}

func (r *PartyRepositoryImpl) MarkWelcomeSent(db *gorm.DB, id string) error {
	result := db.Model(&models.Party{}).Where("id = ?", id).
		Update("welcome_sent", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPartyNotFound
	}
	return nil
}
