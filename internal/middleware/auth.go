package middleware

import (
	"net/http"
	"strings"

	"shortsale_backend/internal/auth"
	"shortsale_backend/internal/models"
	"shortsale_backend/internal/services"
	"shortsale_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthMiddleware - middleware проверки JWT
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing or invalid"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := auth.ParseToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		// Сохраняем claims в контекст
		c.Set("userID", claims.UserID)
		c.Set("role", claims.Role)

		principal := auth.SessionPrincipal(claims)
		c.Set(string(contextkeys.PrincipalContextKey), &principal)
		c.Next()
	}
}

// TrackerTokenMiddleware - аутентификация по magic-link токену из query-параметра.
// Участники сделки не имеют пароля, токен из письма и есть их сессия.
func TrackerTokenMiddleware(tokenService services.AccessTokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Tracker token missing"})
			return
		}

		dbVal, exists := c.Get(string(contextkeys.DBContextKey))
		if !exists {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Database connection not available"})
			return
		}
		db, ok := dbVal.(*gorm.DB)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Database connection not available"})
			return
		}

		stored, err := tokenService.Validate(db, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired tracker link"})
			return
		}

		principal := auth.TokenPrincipal(stored)
		c.Set(string(contextkeys.PrincipalContextKey), &principal)
		c.Set(string(contextkeys.AccessTokenContextKey), stored)
		c.Next()
	}
}

// GetAccessToken извлекает проверенный tracker-токен из контекста
func GetAccessToken(c *gin.Context) (*models.AccessToken, bool) {
	value, exists := c.Get(string(contextkeys.AccessTokenContextKey))
	if !exists {
		return nil, false
	}

	token, ok := value.(*models.AccessToken)
	if !ok || token == nil {
		return nil, false
	}

	return token, true
}

// RoleMiddleware - middleware ограничения по ролям
func RoleMiddleware(requiredRole models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, exists := c.Get("role")
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: no role"})
			return
		}

		role, ok := roleVal.(models.UserRole)
		if !ok {
			// Попытка преобразовать из string, если роль сохранена как строка
			roleStr, isString := roleVal.(string)
			if !isString {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: invalid role type"})
				return
			}
			role = models.UserRole(roleStr)
		}

		if role != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: insufficient permissions"})
			return
		}

		c.Next()
	}
}

// RequireRoles - middleware для проверки нескольких возможных ролей (альтернативный вариант)
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		roleVal, exists := c.Get("role")
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: no role"})
			return
		}

		role, ok := roleVal.(models.UserRole)
		if !ok {
			roleStr, isString := roleVal.(string)
			if !isString {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: invalid role type"})
				return
			}
			role = models.UserRole(roleStr)
		}

		if !roleSet[role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: insufficient role"})
			return
		}

		c.Next()
	}
}

// GetUserID извлекает ID пользователя из контекста
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get("userID")
	if !exists {
		return ""
	}

	id, ok := userID.(string)
	if !ok {
		return ""
	}

	return id
}

// GetPrincipal извлекает принципала запроса (сессия или tracker-токен).
func GetPrincipal(c *gin.Context) (auth.Principal, bool) {
	value, exists := c.Get(string(contextkeys.PrincipalContextKey))
	if !exists {
		return auth.Principal{}, false
	}

	principal, ok := value.(*auth.Principal)
	if !ok || principal == nil {
		return auth.Principal{}, false
	}

	return *principal, true
}
