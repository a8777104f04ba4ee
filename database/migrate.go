package database

import (
	"fmt"

	"gorm.io/gorm"

	"shortsale_backend/internal/logger"
	"shortsale_backend/internal/models"
)

// AutoMigrate выполняет миграцию всех моделей. Порядок важен: таблицы
// со ссылками идут после таблиц, на которые они ссылаются.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.DeviceToken{},
		&models.Transaction{},
		&models.Party{},
		&models.AccessToken{},
		&models.DocumentRequest{},
		&models.Upload{},
		&models.Message{},
		&models.PhaseHistoryEntry{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	logger.Info("✅ AutoMigrate completed")
	return nil
}
