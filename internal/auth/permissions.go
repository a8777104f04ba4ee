package auth

import (
	"errors"

	"shortsale_backend/internal/models"
)

// Ролевые гейты. Negotiator - единственная привилегированная роль:
// фазы, статусы, новые ветки сообщений и жесткие удаления только у нее.

// CanEditTransaction - право менять сделку (фазы, статусы, удаления)
func CanEditTransaction(role models.PartyRole) bool {
	return role == models.PartyRoleNegotiator
}

// CanChangePhase - право переводить сделку между фазами
func CanChangePhase(role models.PartyRole) bool {
	return role == models.PartyRoleNegotiator
}

// CanPostTopLevelMessage - право открывать новую ветку сообщений.
// Отвечать в существующую ветку может любой участник.
func CanPostTopLevelMessage(role models.PartyRole) bool {
	return role == models.PartyRoleNegotiator
}

// CanFulfilDocumentRequest - право закрыть запрос документа: либо
// negotiator, либо участник, чья роль совпадает с назначенной
func CanFulfilDocumentRequest(actor models.PartyRole, assigned models.PartyRole) bool {
	return actor == models.PartyRoleNegotiator || actor == assigned
}

// IsNegotiator проверяет claims сессии на привилегированную роль аккаунта
func IsNegotiator(claims *Claims) bool {
	return claims.Role == models.UserRoleNegotiator
}

// ValidateRole проверяет валидность роли участника
func ValidateRole(role models.PartyRole) error {
	if !models.IsValidPartyRole(role) {
		return errors.New("invalid party role")
	}
	return nil
}
