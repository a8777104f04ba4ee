package integration_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortsale_backend/test/helpers"
)

// TestTracker_View - сторона открывает свою magic-link ссылку
func TestTracker_View(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")
	tx := CreateTestTransaction(t, ts, token, "90 Chestnut St", "90 Chestnut St, Denver, CO")

	sellerEmail := helpers.UniqueEmail("seller")
	seller := AddTestParty(t, ts, token, tx.ID, sellerEmail, "Jane Seller", "seller")
	AddTestParty(t, ts, token, tx.ID, helpers.UniqueEmail("buyer"), "Bill Buyer", "buyer")

	CreateTestDocumentRequest(t, ts, token, tx.ID, "Hardship Letter", "seller")
	CreateTestDocumentRequest(t, ts, token, tx.ID, "Proof of Funds", "buyer")

	res, bodyStr := ts.SendRequest(t, "GET", "/api/v1/tracker?token="+seller.TrackerToken, "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)

	var view struct {
		Transaction struct {
			ID           string `json:"id"`
			Title        string `json:"title"`
			CurrentPhase string `json:"current_phase"`
		} `json:"transaction"`
		Role       string `json:"role"`
		Name       string `json:"name"`
		Email      string `json:"email"`
		Subscribed bool   `json:"subscribed"`
		Phases     []struct {
			Key     string `json:"key"`
			Current bool   `json:"current"`
		} `json:"phases"`
		Parties []struct {
			Role string `json:"role"`
		} `json:"parties"`
		DocumentRequests []struct {
			DocType      string `json:"doc_type"`
			AssignedRole string `json:"assigned_role"`
		} `json:"document_requests"`
		Messages []struct {
			Text          string `json:"text"`
			IsSeedMessage bool   `json:"is_seed_message"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &view))

	assert.Equal(t, tx.ID, view.Transaction.ID)
	assert.Equal(t, "seller", view.Role)
	assert.Equal(t, "Jane Seller", view.Name)
	assert.Equal(t, sellerEmail, view.Email)
	assert.True(t, view.Subscribed)
	assert.Len(t, view.Phases, 7)
	assert.Len(t, view.Parties, 2)

	// Сторона видит только запросы своей роли
	require.Len(t, view.DocumentRequests, 1)
	assert.Equal(t, "Hardship Letter", view.DocumentRequests[0].DocType)
	assert.Equal(t, "seller", view.DocumentRequests[0].AssignedRole)

	// Системное приветствие уже на доске
	require.NotEmpty(t, view.Messages)
	assert.True(t, view.Messages[0].IsSeedMessage)
	assert.Contains(t, view.Messages[0].Text, "Welcome")
	t.Logf("ТРЕКЕР: Просмотр по ссылке (200, чеклист только своей роли) - Успешно.")
}

// TestTracker_InvalidToken - битая и отсутствующая ссылка
func TestTracker_InvalidToken(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)

	res, bodyStr := ts.SendRequest(t, "GET", "/api/v1/tracker?token=not-a-real-token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, bodyStr, "Tracker link is invalid or expired")

	res, bodyStr = ts.SendRequest(t, "GET", "/api/v1/tracker", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, bodyStr, "Tracker token missing")
	t.Logf("ТРЕКЕР: Битая ссылка (401) - Успешно.")
}

// TestTracker_ExpiredToken - истекший токен не открывает трекер,
// но ссылка отписки из старого письма продолжает работать
func TestTracker_ExpiredToken(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")
	tx := CreateTestTransaction(t, ts, token, "12 Magnolia Pl", "12 Magnolia Pl")
	party := AddTestParty(t, ts, token, tx.ID, helpers.UniqueEmail("lender"), "Lana Lender", "lender-rep")

	err := ts.DB.Exec("UPDATE access_tokens SET expires_at = NOW() - INTERVAL '1 day' WHERE token = ?", party.TrackerToken).Error
	require.NoError(t, err)

	// 1. Просмотр закрыт
	res, bodyStr := ts.SendRequest(t, "GET", "/api/v1/tracker?token="+party.TrackerToken, "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, bodyStr, "Tracker link is invalid or expired")
	t.Logf("ТРЕКЕР: Истекший токен (401) - Успешно.")

	// 2. Отписка по той же ссылке проходит
	res, bodyStr = ts.SendRequest(t, "POST", "/api/v1/tracker/subscription?token="+party.TrackerToken, "", map[string]interface{}{
		"subscribed": false,
	})
	assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)
	assert.Contains(t, bodyStr, `"subscribed":false`)

	var subscribed bool
	err = ts.DB.Raw("SELECT subscribed FROM access_tokens WHERE token = ?", party.TrackerToken).Scan(&subscribed).Error
	require.NoError(t, err)
	assert.False(t, subscribed)
	t.Logf("ТРЕКЕР: Отписка истекшим токеном (200) - Успешно.")
}

// TestTracker_SubscriptionQueryVariant - вариант одной ссылкой из письма
func TestTracker_SubscriptionQueryVariant(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")
	tx := CreateTestTransaction(t, ts, token, "73 Sycamore Rd", "73 Sycamore Rd")
	party := AddTestParty(t, ts, token, tx.ID, helpers.UniqueEmail("agent"), "Bob Agent", "agent")

	// 1. Отписка через query-параметр, без тела
	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/tracker/subscription?token="+party.TrackerToken+"&subscribed=false", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)
	assert.Contains(t, bodyStr, `"subscribed":false`)

	// 2. Обратно на подписку через JSON body
	res, bodyStr = ts.SendRequest(t, "POST", "/api/v1/tracker/subscription?token="+party.TrackerToken, "", map[string]interface{}{
		"subscribed": true,
	})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, `"subscribed":true`)

	// 3. Мусор в query
	res, _ = ts.SendRequest(t, "POST", "/api/v1/tracker/subscription?token="+party.TrackerToken+"&subscribed=maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	t.Logf("ТРЕКЕР: Подписка query и body вариантами (200/400) - Успешно.")
}
