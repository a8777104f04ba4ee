package contextkeys

// Используем кастомный тип, чтобы избежать коллизий
type contextKey string

// DBContextKey - это ключ, по которому мы будем хранить *gorm.DB в context
const DBContextKey = contextKey("db")

// PrincipalContextKey - ключ, под которым middleware кладет auth.Principal
const PrincipalContextKey = contextKey("principal")

// AccessTokenContextKey - ключ для проверенного tracker-токена (models.AccessToken)
const AccessTokenContextKey = contextKey("access_token")
