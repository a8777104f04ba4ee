package integration_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortsale_backend/test/helpers"
)

// TestMessage_NegotiatorThread - негоциатор открывает тред, сторона отвечает
func TestMessage_NegotiatorThread(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")
	tx := CreateTestTransaction(t, ts, token, "5 Juniper Ln", "5 Juniper Ln")
	seller := AddTestParty(t, ts, token, tx.ID, helpers.UniqueEmail("seller"), "Jane Seller", "seller")

	// 1. Новый тред от негоциатора
	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/transactions/"+tx.ID+"/messages", token, map[string]interface{}{
		"text": "Please upload the hardship letter by Friday.",
	})
	assert.Equal(t, http.StatusCreated, res.StatusCode, "Ответ: "+bodyStr)

	var posted struct {
		ID         string  `json:"id"`
		SenderName string  `json:"sender_name"`
		ReplyToID  *string `json:"reply_to_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &posted))
	assert.Equal(t, "Mark", posted.SenderName)
	assert.Nil(t, posted.ReplyToID)
	t.Logf("СООБЩЕНИЯ: Новый тред (201) - Успешно.")

	// 2. Сторона отвечает по tracker-ссылке
	res, bodyStr = ts.SendRequest(t, "POST", "/api/v1/tracker/messages?token="+seller.TrackerToken, "", map[string]interface{}{
		"text":        "Uploading it tonight.",
		"reply_to_id": posted.ID,
	})
	assert.Equal(t, http.StatusCreated, res.StatusCode, "Ответ: "+bodyStr)
	assert.Contains(t, bodyStr, "Jane Seller")
	t.Logf("СООБЩЕНИЯ: Ответ стороны по ссылке (201) - Успешно.")

	// 3. Доска: свежий тред первым, ответы вложены, приветствие тоже на месте
	res, bodyStr = ts.SendRequest(t, "GET", "/api/v1/transactions/"+tx.ID+"/messages", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var list struct {
		Data []struct {
			ID            string `json:"id"`
			Text          string `json:"text"`
			IsSeedMessage bool   `json:"is_seed_message"`
			Replies       []struct {
				Text       string `json:"text"`
				SenderName string `json:"sender_name"`
			} `json:"replies"`
		} `json:"data"`
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &list))
	require.Equal(t, int64(2), list.Total, "Приветствие + новый тред")
	assert.Equal(t, posted.ID, list.Data[0].ID)
	require.Len(t, list.Data[0].Replies, 1)
	assert.Equal(t, "Uploading it tonight.", list.Data[0].Replies[0].Text)
	assert.True(t, list.Data[1].IsSeedMessage)
	t.Logf("СООБЩЕНИЯ: Доска тредов (200, ответ вложен) - Успешно.")
}

// TestMessage_PartyCannotStartThread - сторона не открывает новые треды
func TestMessage_PartyCannotStartThread(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")
	tx := CreateTestTransaction(t, ts, token, "29 Redwood Ave", "29 Redwood Ave")
	buyer := AddTestParty(t, ts, token, tx.ID, helpers.UniqueEmail("buyer"), "Bill Buyer", "buyer")

	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/tracker/messages?token="+buyer.TrackerToken, "", map[string]interface{}{
		"text": "When is closing?",
	})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Contains(t, bodyStr, "Only the negotiator can start a new message thread")
	t.Logf("СООБЩЕНИЯ: Тред от стороны (403) - Успешно.")
}

// TestMessage_ReplyRules - плоский тред и чужие родители
func TestMessage_ReplyRules(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")
	tx := CreateTestTransaction(t, ts, token, "8 Dogwood Ct", "8 Dogwood Ct")
	otherTx := CreateTestTransaction(t, ts, token, "11 Hawthorn St", "11 Hawthorn St")

	res, bodyStr := ts.SendRequest(t, "POST", "/api/v1/transactions/"+tx.ID+"/messages", token, map[string]interface{}{
		"text": "Thread head",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var head struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &head))

	res, bodyStr = ts.SendRequest(t, "POST", "/api/v1/transactions/"+tx.ID+"/messages", token, map[string]interface{}{
		"text":        "First reply",
		"reply_to_id": head.ID,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var reply struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &reply))

	// 1. Ответ на ответ запрещен, тред одноуровневый
	res, bodyStr = ts.SendRequest(t, "POST", "/api/v1/transactions/"+tx.ID+"/messages", token, map[string]interface{}{
		"text":        "Reply to reply",
		"reply_to_id": reply.ID,
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, bodyStr, "top-level")
	t.Logf("СООБЩЕНИЯ: Ответ на ответ (400) - Успешно.")

	// 2. Родитель из другой сделки
	res, bodyStr = ts.SendRequest(t, "POST", "/api/v1/transactions/"+otherTx.ID+"/messages", token, map[string]interface{}{
		"text":        "Cross reply",
		"reply_to_id": head.ID,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, bodyStr, "Parent message belongs to a different transaction")

	// 3. Несуществующий родитель
	res, _ = ts.SendRequest(t, "POST", "/api/v1/transactions/"+tx.ID+"/messages", token, map[string]interface{}{
		"text":        "Orphan reply",
		"reply_to_id": "00000000-0000-0000-0000-000000000000",
	})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	t.Logf("СООБЩЕНИЯ: Невалидные родители (422/404) - Успешно.")
}
