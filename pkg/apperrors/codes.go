package apperrors

// ErrorCode - тип для кодов ошибок
type ErrorCode string

// Коды, которые видят клиенты в конверте {"error": {...}}.
// Набор закрытый: новые коды добавляются здесь, а не ad hoc в хэндлерах.
const (
	// Системные и неизвестные ошибки
	CodeServerError ErrorCode = "SERVER_ERROR"

	// Ошибки запроса и бизнес-правил
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeInvalidPhase    ErrorCode = "INVALID_PHASE"
	CodeInvalidParent   ErrorCode = "INVALID_PARENT"

	// Аутентификация и авторизация (сквозные)
	CodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	CodeForbidden       ErrorCode = "FORBIDDEN"
)
