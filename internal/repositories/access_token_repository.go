package repositories

import (
	"errors"

	"shortsale_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrAccessTokenNotFound = errors.New("access token not found")
)

type AccessTokenRepository interface {
	Create(db *gorm.DB, token *models.AccessToken) error
	FindByToken(db *gorm.DB, token string) (*models.AccessToken, error)
	FindByTransactionAndEmail(db *gorm.DB, transactionID, email string) (*models.AccessToken, error)
	FindByTransaction(db *gorm.DB, transactionID string) ([]models.AccessToken, error)
	FindSubscribed(db *gorm.DB) ([]models.AccessToken, error)
	UpdateSubscribed(db *gorm.DB, id string, subscribed bool) error
	UpdateRole(db *gorm.DB, id string, role models.PartyRole) error
}

type AccessTokenRepositoryImpl struct{}

func NewAccessTokenRepository() AccessTokenRepository {
	return &AccessTokenRepositoryImpl{}
}

func (r *AccessTokenRepositoryImpl) Create(db *gorm.DB, token *models.AccessToken) error {
	return db.Create(token).Error
}

func (r *AccessTokenRepositoryImpl) FindByToken(db *gorm.DB, token string) (*models.AccessToken, error) {
	var accessToken models.AccessToken
	err := db.First(&accessToken, "token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccessTokenNotFound
		}
		return nil, err
	}
	return &accessToken, nil
}

func (r *AccessTokenRepositoryImpl) FindByTransactionAndEmail(db *gorm.DB, transactionID, email string) (*models.AccessToken, error) {
	var accessToken models.AccessToken
	err := db.First(&accessToken, "transaction_id = ? AND email = ?", transactionID, email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccessTokenNotFound
		}
		return nil, err
	}
	return &accessToken, nil
}

func (r *AccessTokenRepositoryImpl) FindByTransaction(db *gorm.DB, transactionID string) ([]models.AccessToken, error) {
	var tokens []models.AccessToken
	err := db.Where("transaction_id = ?", transactionID).
		Order("created_at ASC").
		Find(&tokens).Error
	return tokens, err
}

// FindSubscribed returns every token that still wants email updates.
// Expired tokens are filtered by the caller via AccessToken.Valid.
func (r *AccessTokenRepositoryImpl) FindSubscribed(db *gorm.DB) ([]models.AccessToken, error) {
	var tokens []models.AccessToken
	err := db.Where("subscribed = ?", true).
		Order("transaction_id ASC, created_at ASC").
		Find(&tokens).Error
	return tokens, err
}

func (r *AccessTokenRepositoryImpl) UpdateSubscribed(db *gorm.DB, id string, subscribed bool) error {
	result := db.Model(&models.AccessToken{}).
		Where("id = ?", id).
		Update("subscribed", subscribed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccessTokenNotFound
	}
	return nil
}

// UpdateRole keeps a reused token in sync when a party is re-invited
// under a different role. The token value itself never changes.
func (r *AccessTokenRepositoryImpl) UpdateRole(db *gorm.DB, id string, role models.PartyRole) error {
	result := db.Model(&models.AccessToken{}).
		Where("id = ?", id).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAccessTokenNotFound
	}
	return nil
}
