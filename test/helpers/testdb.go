package helpers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"shortsale_backend/internal/models"
)

// UniqueEmail дает адрес, не пересекающийся с другими тестами.
// Изоляция прогона строится на уникальных данных, а не на транзакциях.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s_%d@test.com", prefix, time.Now().UnixNano())
}

// CreateUser создает пользователя с автоматическим хешированием пароля
func CreateUser(t *testing.T, db *gorm.DB, user *models.User) error {
	// Хешируем только сырые пароли; у приглашенных сторон хеш пустой
	if user.PasswordHash != "" && !strings.HasPrefix(user.PasswordHash, "$2a$") {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.PasswordHash), bcrypt.DefaultCost)
		if err != nil {
			t.Fatalf("Не удалось хешировать пароль: %v", err)
		}
		user.PasswordHash = string(hashedPassword)
	}

	if user.Role == "" {
		user.Role = models.UserRoleNegotiator
	}

	result := db.Create(user)
	if result.Error != nil {
		t.Logf("ОШИБКА: не удалось создать пользователя %s: %v", user.Email, result.Error)
		return result.Error
	}

	return nil
}

// AuthUser - распарсенный ответ авторизации
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type authResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         AuthUser `json:"user"`
}

// RegisterNegotiator регистрирует негоциатора через API и возвращает
// access-токен и данные пользователя.
func RegisterNegotiator(t *testing.T, ts *TestServer, name, email, password string) (string, *AuthUser) {
	body := map[string]interface{}{
		"name":     name,
		"email":    email,
		"password": password,
	}

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/register", "", body)
	assert.Equal(t, http.StatusCreated, res.StatusCode, "Регистрация должна быть успешной. Ответ: "+bodyStr)

	var parsed authResponse
	err := json.Unmarshal([]byte(bodyStr), &parsed)
	assert.NoError(t, err, "Не удалось распарсить JSON")
	assert.NotEmpty(t, parsed.AccessToken, "Токен не должен быть пустым")

	log.Printf("✅ [Helper] Зарегистрирован негоциатор %s", email)
	return parsed.AccessToken, &parsed.User
}

// CreateAndLoginNegotiator создает негоциатора напрямую в БД и логинит его
func CreateAndLoginNegotiator(t *testing.T, ts *TestServer, name, email, password string) (string, *models.User) {
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: password, // Сырой пароль
		Role:         models.UserRoleNegotiator,
	}
	err := CreateUser(t, ts.DB, user)
	assert.NoError(t, err, "Создание тестового пользователя не должно вызывать ошибку")

	loginBody := map[string]interface{}{
		"email":    email,
		"password": password,
	}

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/login", "", loginBody)
	assert.Equal(t, http.StatusOK, res.StatusCode, "Логин должен быть успешным. Ответ: "+bodyStr)

	var parsed authResponse
	err = json.Unmarshal([]byte(bodyStr), &parsed)
	assert.NoError(t, err, "Не удалось распарсить JSON")
	assert.NotEmpty(t, parsed.AccessToken, "Токен не должен быть пустым")

	log.Printf("✅ [Helper] Создан и залогинен негоциатор %s", email)
	return parsed.AccessToken, user
}
