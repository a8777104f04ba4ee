package apperrors

import (
	"net/http"
)

/*
Этот файл содержит фабрики и предопределенные переменные
для общих ошибок бизнес-логики и домена.
*/

// =========================================================================
// Фабричные ФУНКЦИИ (оборачивание ошибок, напр. из репозитория)
// =========================================================================

// ErrNotFound - фабрика для ошибки "не найдено" (404).
// Используется, когда ошибка репозитория (типа gorm.ErrRecordNotFound)
// должна быть преобразована в AppError.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "Resource not found", http.StatusNotFound)
}

// ErrInvalidPhaseKey - фабрика для неизвестного ключа фазы (422)
func ErrInvalidPhaseKey(phase string) *AppError {
	return New(CodeInvalidPhase, "Unknown phase key", http.StatusUnprocessableEntity).
		WithDetails(map[string]string{"phase": phase})
}

// ErrInvalidStatusChange - фабрика для запрещенного перехода статуса (400)
func ErrInvalidStatusChange(message string) *AppError {
	return New(CodeValidationError, message, http.StatusBadRequest)
}

// =========================================================================
// Предопределенные ПЕРЕМЕННЫЕ (частые, статичные ошибки)
// =========================================================================

// ErrInvalidCredentials - пара email/пароль не подошла.
var ErrInvalidCredentials = New(
	CodeUnauthenticated,
	"Invalid email or password",
	http.StatusUnauthorized,
)

// ErrTrackerTokenInvalid - токен трекера не найден или просрочен.
// Для клиента оба случая неразличимы, детали не раскрываем.
var ErrTrackerTokenInvalid = New(
	CodeUnauthenticated,
	"Tracker link is invalid or expired",
	http.StatusUnauthorized,
)

// ErrNegotiatorOnly - операция доступна только роли negotiator.
var ErrNegotiatorOnly = New(
	CodeForbidden,
	"Only the negotiator can perform this operation",
	http.StatusForbidden,
)

// ErrTransactionAccessDenied - актор не участвует в сделке и не владеет ею.
var ErrTransactionAccessDenied = New(
	CodeForbidden,
	"No access to this transaction",
	http.StatusForbidden,
)

// ErrTopLevelMessageForbidden - новую ветку открывает только negotiator,
// остальные роли могут лишь отвечать.
var ErrTopLevelMessageForbidden = New(
	CodeForbidden,
	"Only the negotiator can start a new message thread",
	http.StatusForbidden,
)

// ErrReplyParentMismatch - родительское сообщение из другой сделки.
var ErrReplyParentMismatch = New(
	CodeInvalidParent,
	"Parent message belongs to a different transaction",
	http.StatusUnprocessableEntity,
)

// --- Uploads & Files ---

// ErrFileTooLarge - файл превышает максимальный размер для одного запроса.
var ErrFileTooLarge = New(
	CodeValidationError,
	"File size exceeds the allowed limit",
	http.StatusRequestEntityTooLarge, // 413
)

// ErrInvalidFileType - MIME-тип файла не разрешен.
var ErrInvalidFileType = New(
	CodeValidationError,
	"The provided file type is not allowed",
	http.StatusUnsupportedMediaType, // 415
)
