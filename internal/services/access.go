package services

import (
	"errors"

	"shortsale_backend/internal/auth"
	"shortsale_backend/internal/models"
	"shortsale_backend/internal/repositories"
	"shortsale_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// Общие проверки охвата для сервисов. Principal уже аутентифицирован
// middleware-ом, здесь решается только "можно ли ЭТУ сделку".

// loadOwnedTransaction возвращает сделку для операции записи.
// Писать может только negotiator-владелец.
func loadOwnedTransaction(db *gorm.DB, txRepo repositories.TransactionRepository, principal auth.Principal, transactionID string) (*models.Transaction, error) {
	if !principal.IsNegotiator() {
		return nil, apperrors.ErrNegotiatorOnly
	}

	transaction, err := txRepo.FindByID(db, transactionID)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	if principal.Source == auth.PrincipalSourceSession && transaction.NegotiatorID != principal.UserID {
		return nil, apperrors.ErrTransactionAccessDenied
	}
	if !principal.ScopedTo(transactionID) {
		return nil, apperrors.ErrTransactionAccessDenied
	}

	return transaction, nil
}

// loadScopedTransaction возвращает сделку для чтения: владелец,
// участник или валидный токен этой сделки.
func loadScopedTransaction(db *gorm.DB, txRepo repositories.TransactionRepository, partyRepo repositories.PartyRepository, principal auth.Principal, transactionID string) (*models.Transaction, error) {
	if !principal.ScopedTo(transactionID) {
		return nil, apperrors.ErrTransactionAccessDenied
	}

	transaction, err := txRepo.FindByID(db, transactionID)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	// Токен уже привязан к сделке, дальше проверять нечего.
	if principal.Source == auth.PrincipalSourceToken {
		return transaction, nil
	}

	if transaction.NegotiatorID == principal.UserID {
		return transaction, nil
	}

	if _, err := partyRepo.Find(db, transactionID, principal.UserID); err == nil {
		return transaction, nil
	}

	return nil, apperrors.ErrTransactionAccessDenied
}

// resolvePrincipalUser находит строку users за principal-ом.
// У токен-принципала известен только email.
func resolvePrincipalUser(db *gorm.DB, userRepo repositories.UserRepository, principal auth.Principal) (*models.User, error) {
	if principal.UserID != "" {
		return userRepo.FindByID(db, principal.UserID)
	}
	return userRepo.FindByEmail(db, principal.Email)
}
