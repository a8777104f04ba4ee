package integration_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortsale_backend/test/helpers"
)

// TestTransaction_CreateAndGet - создание сделки и карточка с фазами
func TestTransaction_CreateAndGet(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")

	// 1. Создание: новая сделка всегда стартует с intro
	tx := CreateTestTransaction(t, ts, token, "456 Oak Ave", "456 Oak Ave, Portland, OR")
	assert.Equal(t, "intro", tx.CurrentPhase)
	require.NotEmpty(t, tx.ID)
	t.Logf("СДЕЛКИ: Создание (201, фаза intro) - Успешно.")

	// 2. Карточка: прогресс по всем фазам, intro отмечена текущей
	res, bodyStr := ts.SendRequest(t, "GET", "/api/v1/transactions/"+tx.ID, token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)

	var detail struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Phases []struct {
			Key     string `json:"key"`
			Current bool   `json:"current"`
		} `json:"phases"`
		Parties          []json.RawMessage `json:"parties"`
		DocumentRequests []json.RawMessage `json:"document_requests"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &detail))
	assert.Equal(t, tx.ID, detail.ID)
	assert.Equal(t, "456 Oak Ave", detail.Title)
	require.Len(t, detail.Phases, 7)
	assert.Equal(t, "intro", detail.Phases[0].Key)
	assert.True(t, detail.Phases[0].Current)
	assert.Equal(t, "closed", detail.Phases[6].Key)
	assert.False(t, detail.Phases[6].Current)
	assert.Empty(t, detail.Parties)
	assert.Empty(t, detail.DocumentRequests)
	t.Logf("СДЕЛКИ: Карточка (200, 7 фаз) - Успешно.")
}

// TestTransaction_ListFilterSearch - список с фильтром по фазе и поиском
func TestTransaction_ListFilterSearch(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")

	first := CreateTestTransaction(t, ts, token, "Maple Street Short Sale", "12 Maple St")
	second := CreateTestTransaction(t, ts, token, "Birch Road Case", "9 Birch Rd")

	// Переводим вторую сделку в under-review
	res, bodyStr := ts.SendRequest(t, "PUT", "/api/v1/transactions/"+second.ID+"/phase", token, map[string]interface{}{
		"phase": "under-review",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)

	// 1. Без фильтра видны обе
	res, bodyStr = ts.SendRequest(t, "GET", "/api/v1/transactions", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var list struct {
		Data []struct {
			ID           string `json:"id"`
			CurrentPhase string `json:"current_phase"`
		} `json:"data"`
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &list))
	assert.Equal(t, int64(2), list.Total)
	t.Logf("СДЕЛКИ: Список (200, total=2) - Успешно.")

	// 2. Фильтр по фазе оставляет только вторую
	res, bodyStr = ts.SendRequest(t, "GET", "/api/v1/transactions?phase=under-review", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &list))
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, second.ID, list.Data[0].ID)
	assert.Equal(t, "under-review", list.Data[0].CurrentPhase)

	// 3. Поиск по названию находит первую
	res, bodyStr = ts.SendRequest(t, "GET", "/api/v1/transactions?search=Maple", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &list))
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, first.ID, list.Data[0].ID)
	t.Logf("СДЕЛКИ: Фильтр и поиск (200) - Успешно.")
}

// TestTransaction_Update - частичное обновление названия и адреса
func TestTransaction_Update(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")
	tx := CreateTestTransaction(t, ts, token, "Old Title", "1 Old Addr")

	res, bodyStr := ts.SendRequest(t, "PATCH", "/api/v1/transactions/"+tx.ID, token, map[string]interface{}{
		"title": "New Title",
	})
	assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)
	assert.Contains(t, bodyStr, "New Title")
	assert.Contains(t, bodyStr, "1 Old Addr", "Адрес без изменений при частичном PATCH")
	t.Logf("СДЕЛКИ: Обновление (200) - Успешно.")
}

// TestTransaction_PhaseFlow - смена фазы, история, неизвестная фаза
func TestTransaction_PhaseFlow(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")
	tx := CreateTestTransaction(t, ts, token, "88 Pine Ct", "88 Pine Ct")

	// 1. Сразу после создания история пуста
	res, bodyStr := ts.SendRequest(t, "GET", "/api/v1/transactions/"+tx.ID+"/phase-history", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var history struct {
		Data []struct {
			Phase     string `json:"phase"`
			SetByID   string `json:"set_by_id"`
			SetByName string `json:"set_by_name"`
		} `json:"data"`
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &history))
	assert.Equal(t, int64(0), history.Total)

	// 2. Перевод в document-collection
	res, bodyStr = ts.SendRequest(t, "PUT", "/api/v1/transactions/"+tx.ID+"/phase", token, map[string]interface{}{
		"phase": "document-collection",
	})
	assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)
	assert.Contains(t, bodyStr, `"current_phase":"document-collection"`)

	// 3. Откат назад тоже разрешен, фиксируется в истории
	res, _ = ts.SendRequest(t, "PUT", "/api/v1/transactions/"+tx.ID+"/phase", token, map[string]interface{}{
		"phase": "intro",
	})
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, bodyStr = ts.SendRequest(t, "GET", "/api/v1/transactions/"+tx.ID+"/phase-history", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &history))
	require.Equal(t, int64(2), history.Total)
	assert.Equal(t, "document-collection", history.Data[0].Phase, "История в хронологическом порядке")
	assert.Equal(t, "intro", history.Data[1].Phase)
	assert.Equal(t, "Mark", history.Data[0].SetByName)
	t.Logf("СДЕЛКИ: История фаз (200, 2 записи) - Успешно.")

	// 4. Неизвестный ключ фазы: отказ без смены состояния и без записи в историю
	res, bodyStr = ts.SendRequest(t, "PUT", "/api/v1/transactions/"+tx.ID+"/phase", token, map[string]interface{}{
		"phase": "escrow",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, bodyStr, "INVALID_PHASE")

	res, bodyStr = ts.SendRequest(t, "GET", "/api/v1/transactions/"+tx.ID, token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, `"current_phase":"intro"`)

	res, bodyStr = ts.SendRequest(t, "GET", "/api/v1/transactions/"+tx.ID+"/phase-history", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &history))
	assert.Equal(t, int64(2), history.Total)
	t.Logf("СДЕЛКИ: Неизвестная фаза (422, состояние не тронуто) - Успешно.")
}

// TestTransaction_Delete - удаление и повторный запрос
func TestTransaction_Delete(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")
	tx := CreateTestTransaction(t, ts, token, "To Be Deleted", "77 Gone St")

	res, bodyStr := ts.SendRequest(t, "DELETE", "/api/v1/transactions/"+tx.ID, token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, "Transaction deleted")

	res, _ = ts.SendRequest(t, "GET", "/api/v1/transactions/"+tx.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	t.Logf("СДЕЛКИ: Удаление (200, затем 404) - Успешно.")
}

// TestTransaction_AccessControl - чужая сделка и несуществующий ID
func TestTransaction_AccessControl(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	ownerToken, _ := helpers.RegisterNegotiator(t, ts, "Owner", helpers.UniqueEmail("owner"), "password123")
	strangerToken, _ := helpers.RegisterNegotiator(t, ts, "Stranger", helpers.UniqueEmail("stranger"), "password123")

	tx := CreateTestTransaction(t, ts, ownerToken, "Private Case", "5 Secret Ln")

	// 1. Чужой негоциатор не видит сделку
	res, bodyStr := ts.SendRequest(t, "GET", "/api/v1/transactions/"+tx.ID, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Contains(t, bodyStr, "No access to this transaction")

	// 2. И не может менять фазу
	res, _ = ts.SendRequest(t, "PUT", "/api/v1/transactions/"+tx.ID+"/phase", strangerToken, map[string]interface{}{
		"phase": "approved",
	})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	// 3. Несуществующий ID
	res, _ = ts.SendRequest(t, "GET", "/api/v1/transactions/00000000-0000-0000-0000-000000000000", ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	// 4. В чужом списке сделки нет
	res, bodyStr = ts.SendRequest(t, "GET", "/api/v1/transactions", strangerToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotContains(t, bodyStr, tx.ID)
	t.Logf("СДЕЛКИ: Изоляция негоциаторов (403/404) - Успешно.")
}

// TestTransaction_TrackerLinks - список выданных magic-link ссылок
func TestTransaction_TrackerLinks(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")
	tx := CreateTestTransaction(t, ts, token, "Linked Case", "3 Link Way")

	sellerEmail := helpers.UniqueEmail("seller")
	agentEmail := helpers.UniqueEmail("agent")
	AddTestParty(t, ts, token, tx.ID, sellerEmail, "Jane Seller", "seller")
	AddTestParty(t, ts, token, tx.ID, agentEmail, "Bob Agent", "agent")

	res, bodyStr := ts.SendRequest(t, "GET", "/api/v1/transactions/"+tx.ID+"/tracker-links", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)

	var links struct {
		Data []struct {
			Email string `json:"email"`
			Role  string `json:"role"`
			URL   string `json:"url"`
		} `json:"data"`
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &links))
	assert.Equal(t, int64(2), links.Total)
	for _, link := range links.Data {
		assert.Contains(t, link.URL, "token=")
	}
	t.Logf("СДЕЛКИ: Tracker-ссылки (200, 2 шт) - Успешно.")
}
