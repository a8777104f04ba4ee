package validator

import (
	"log"

	"shortsale_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует все кастомные функции валидации в
// переданном экземпляре валидатора.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Если правило не удалось зарегистрировать, приложение
			// не должно запускаться, это ошибка времени старта.
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// 'is-phase': фаза сделки из справочника
	mustRegister("is-phase", validatePhase)

	// 'is-party-role': роль участника сделки
	mustRegister("is-party-role", validatePartyRole)

	// 'is-party-status': статус участника
	mustRegister("is-party-status", validatePartyStatus)

	// 'is-request-status': статус запроса документа
	mustRegister("is-request-status", validateDocumentRequestStatus)

	// 'is-upload-visibility': видимость загруженного файла
	mustRegister("is-upload-visibility", validateUploadVisibility)
}

// --- Функции валидации ---

func validatePhase(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Не проверяем пустые значения, для этого есть 'required'
	}
	return models.IsValidPhase(models.Phase(value))
}

func validatePartyRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.IsValidPartyRole(models.PartyRole(value))
}

func validatePartyStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.IsValidPartyStatus(models.PartyStatus(value))
}

func validateDocumentRequestStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.IsValidDocumentRequestStatus(models.DocumentRequestStatus(value))
}

func validateUploadVisibility(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	visibility := models.UploadVisibility(value)
	return visibility == models.UploadVisibilityPrivate || visibility == models.UploadVisibilityShared
}
