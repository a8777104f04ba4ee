package integration_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortsale_backend/test/helpers"
)

type wsFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// readFrame читает один фрейм с дедлайном
func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame wsFrame
	require.NoError(t, conn.ReadJSON(&frame), "Ожидался фрейм по WebSocket")
	return frame
}

// TestRealtime_SessionAndTrackerFeeds - живая лента сделки по обоим входам
func TestRealtime_SessionAndTrackerFeeds(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")
	tx := CreateTestTransaction(t, ts, token, "99 River Bend", "99 River Bend")
	seller := AddTestParty(t, ts, token, tx.ID, helpers.UniqueEmail("seller"), "Jane Seller", "seller")

	// 1. Негоциатор подключается с Bearer-токеном
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	sessionConn, _, err := websocket.DefaultDialer.Dial(ts.WebSocketURL("/ws/transactions/"+tx.ID), header)
	require.NoError(t, err, "Сессионное WebSocket-подключение")
	defer sessionConn.Close()

	// 2. Сторона подключается по tracker-токену
	trackerConn, _, err := websocket.DefaultDialer.Dial(ts.WebSocketURL("/ws/tracker?token="+seller.TrackerToken), nil)
	require.NoError(t, err, "Tracker WebSocket-подключение")
	defer trackerConn.Close()

	require.Eventually(t, func() bool {
		return ts.Broker.WatcherCount(tx.ID) == 2
	}, 5*time.Second, 50*time.Millisecond, "Оба подключения должны зарегистрироваться")
	t.Logf("РИЛТАЙМ: Два подключения к сделке - Успешно.")

	// 3. Новое сообщение прилетает обоим
	res, _ := ts.SendRequest(t, "POST", "/api/v1/transactions/"+tx.ID+"/messages", token, map[string]interface{}{
		"text": "Lender approved the short sale!",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	for _, conn := range []*websocket.Conn{sessionConn, trackerConn} {
		frame := readFrame(t, conn)
		assert.Equal(t, "new_message", frame.Type)

		var data struct {
			TransactionID string `json:"transaction_id"`
			Text          string `json:"text"`
			SenderName    string `json:"sender_name"`
		}
		require.NoError(t, json.Unmarshal(frame.Data, &data))
		assert.Equal(t, tx.ID, data.TransactionID)
		assert.Contains(t, data.Text, "approved")
	}
	t.Logf("РИЛТАЙМ: Фрейм new_message получен обоими - Успешно.")

	// 4. Смена фазы тоже транслируется
	res, _ = ts.SendRequest(t, "PUT", "/api/v1/transactions/"+tx.ID+"/phase", token, map[string]interface{}{
		"phase": "approved",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	frame := readFrame(t, trackerConn)
	assert.Equal(t, "phase_changed", frame.Type)

	var phaseData struct {
		Phase string `json:"phase"`
	}
	require.NoError(t, json.Unmarshal(frame.Data, &phaseData))
	assert.Equal(t, "approved", phaseData.Phase)
	t.Logf("РИЛТАЙМ: Фрейм phase_changed получен - Успешно.")
}

// TestRealtime_IsolationBetweenTransactions - фреймы не утекают в чужие сделки
func TestRealtime_IsolationBetweenTransactions(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")
	first := CreateTestTransaction(t, ts, token, "1 First St", "1 First St")
	second := CreateTestTransaction(t, ts, token, "2 Second St", "2 Second St")

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := websocket.DefaultDialer.Dial(ts.WebSocketURL("/ws/transactions/"+second.ID), header)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return ts.Broker.WatcherCount(second.ID) == 1
	}, 5*time.Second, 50*time.Millisecond)

	// Активность в первой сделке не доходит до наблюдателя второй
	res, _ := ts.SendRequest(t, "POST", "/api/v1/transactions/"+first.ID+"/messages", token, map[string]interface{}{
		"text": "Message for the first case only",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(500*time.Millisecond)))
	var frame wsFrame
	err = conn.ReadJSON(&frame)
	assert.Error(t, err, "Наблюдатель второй сделки не должен получить чужой фрейм")
	t.Logf("РИЛТАЙМ: Изоляция сделок (таймаут чтения) - Успешно.")
}

// TestRealtime_RejectsUnauthorized - подключение без прав не проходит
func TestRealtime_RejectsUnauthorized(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")
	tx := CreateTestTransaction(t, ts, token, "77 Canyon Rd", "77 Canyon Rd")

	// 1. Без токена
	conn, res, err := websocket.DefaultDialer.Dial(ts.WebSocketURL("/ws/transactions/"+tx.ID), nil)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, res)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	// 2. Чужой негоциатор
	strangerToken, _ := helpers.RegisterNegotiator(t, ts, "Stranger", helpers.UniqueEmail("stranger"), "password123")
	header := http.Header{}
	header.Set("Authorization", "Bearer "+strangerToken)
	conn, res, err = websocket.DefaultDialer.Dial(ts.WebSocketURL("/ws/transactions/"+tx.ID), header)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, res)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	// 3. Битый tracker-токен
	conn, res, err = websocket.DefaultDialer.Dial(ts.WebSocketURL("/ws/tracker?token=bogus"), nil)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, res)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	t.Logf("РИЛТАЙМ: Отказ в подключении (401/403) - Успешно.")
}
