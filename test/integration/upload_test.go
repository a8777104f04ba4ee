package integration_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortsale_backend/test/helpers"
)

// Минимальный валидный PDF-заголовок, достаточно для детекции типа
var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

// TestUpload_SaveListDelete - полный цикл загрузки документа
func TestUpload_SaveListDelete(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")
	tx := CreateTestTransaction(t, ts, token, "35 Walnut St", "35 Walnut St")

	// 1. Загрузка PDF
	res, bodyStr := ts.SendMultipart(t, "/api/v1/transactions/"+tx.ID+"/uploads", token,
		map[string]string{"doc_type": "Hardship Letter"},
		"hardship-letter.pdf", "application/pdf", pdfBytes)
	assert.Equal(t, http.StatusCreated, res.StatusCode, "Ответ: "+bodyStr)

	var upload struct {
		ID           string `json:"id"`
		OriginalName string `json:"original_name"`
		MimeType     string `json:"mime_type"`
		Size         int64  `json:"size"`
		URL          string `json:"url"`
		Visibility   string `json:"visibility"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &upload))
	assert.Equal(t, "hardship-letter.pdf", upload.OriginalName)
	assert.Equal(t, "application/pdf", upload.MimeType)
	assert.Equal(t, int64(len(pdfBytes)), upload.Size)
	assert.Equal(t, "shared", upload.Visibility, "Видимость по умолчанию shared")
	assert.NotEmpty(t, upload.URL)
	t.Logf("ФАЙЛЫ: Загрузка PDF (201) - Успешно.")

	// 2. Список
	res, bodyStr = ts.SendRequest(t, "GET", "/api/v1/transactions/"+tx.ID+"/uploads", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, `"total":1`)
	assert.Contains(t, bodyStr, "hardship-letter.pdf")

	// 3. Ссылка на скачивание
	res, bodyStr = ts.SendRequest(t, "GET", "/api/v1/transactions/"+tx.ID+"/uploads/"+upload.ID+"/url", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)
	assert.Contains(t, bodyStr, `"url"`)
	assert.Contains(t, bodyStr, "expires_at")
	t.Logf("ФАЙЛЫ: Ссылка на скачивание (200) - Успешно.")

	// 4. Удаление
	res, bodyStr = ts.SendRequest(t, "DELETE", "/api/v1/transactions/"+tx.ID+"/uploads/"+upload.ID, token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, "Upload deleted")

	res, bodyStr = ts.SendRequest(t, "GET", "/api/v1/transactions/"+tx.ID+"/uploads", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, `"total":0`)
	t.Logf("ФАЙЛЫ: Удаление (200, список пуст) - Успешно.")
}

// TestUpload_RejectsDisallowedType - тип файла вне белого списка
func TestUpload_RejectsDisallowedType(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")
	tx := CreateTestTransaction(t, ts, token, "42 Beech Rd", "42 Beech Rd")

	res, bodyStr := ts.SendMultipart(t, "/api/v1/transactions/"+tx.ID+"/uploads", token,
		map[string]string{"doc_type": "Notes"},
		"notes.txt", "text/plain", []byte("just some text"))
	assert.Equal(t, http.StatusUnsupportedMediaType, res.StatusCode, "Ответ: "+bodyStr)
	assert.Contains(t, bodyStr, "not allowed")
	t.Logf("ФАЙЛЫ: Запрещенный тип (415) - Успешно.")
}

// TestUpload_TrackerAndRequestLink - сторона грузит файл под свой запрос
func TestUpload_TrackerAndRequestLink(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")
	tx := CreateTestTransaction(t, ts, token, "27 Linden Way", "27 Linden Way")

	seller := AddTestParty(t, ts, token, tx.ID, helpers.UniqueEmail("seller"), "Jane Seller", "seller")
	buyer := AddTestParty(t, ts, token, tx.ID, helpers.UniqueEmail("buyer"), "Bill Buyer", "buyer")
	request := CreateTestDocumentRequest(t, ts, token, tx.ID, "Bank Statements", "seller")

	// 1. Чужая роль не может прикрепить файл к запросу
	res, bodyStr := ts.SendMultipart(t, "/api/v1/tracker/uploads?token="+buyer.TrackerToken, "",
		map[string]string{"doc_type": "Bank Statements", "document_request_id": request.ID},
		"statements.pdf", "application/pdf", pdfBytes)
	assert.Equal(t, http.StatusForbidden, res.StatusCode, "Ответ: "+bodyStr)

	// 2. Назначенная роль грузит под запрос
	res, bodyStr = ts.SendMultipart(t, "/api/v1/tracker/uploads?token="+seller.TrackerToken, "",
		map[string]string{"doc_type": "Bank Statements", "document_request_id": request.ID},
		"statements.pdf", "application/pdf", pdfBytes)
	assert.Equal(t, http.StatusCreated, res.StatusCode, "Ответ: "+bodyStr)
	assert.Contains(t, bodyStr, request.ID)
	t.Logf("ФАЙЛЫ: Загрузка по tracker-ссылке (403 чужой, 201 свой) - Успешно.")

	// 3. Файл прикреплен, но запрос закрывается отдельным действием
	res, bodyStr = ts.SendRequest(t, "GET", "/api/v1/transactions/"+tx.ID+"/document-requests", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, `"status":"pending"`)
	assert.Contains(t, bodyStr, "statements.pdf")
	t.Logf("ФАЙЛЫ: Запрос остался pending после загрузки - Успешно.")
}

// TestUpload_PrivateVisibility - приватный файл скрыт от других сторон
func TestUpload_PrivateVisibility(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")
	tx := CreateTestTransaction(t, ts, token, "3 Palm Ct", "3 Palm Ct")

	seller := AddTestParty(t, ts, token, tx.ID, helpers.UniqueEmail("seller"), "Jane Seller", "seller")
	buyer := AddTestParty(t, ts, token, tx.ID, helpers.UniqueEmail("buyer"), "Bill Buyer", "buyer")

	// Продавец грузит приватный файл
	res, bodyStr := ts.SendMultipart(t, "/api/v1/tracker/uploads?token="+seller.TrackerToken, "",
		map[string]string{"doc_type": "Financials", "visibility": "private"},
		"private-financials.pdf", "application/pdf", pdfBytes)
	require.Equal(t, http.StatusCreated, res.StatusCode, "Ответ: "+bodyStr)

	// Негоциатор видит
	res, bodyStr = ts.SendRequest(t, "GET", "/api/v1/transactions/"+tx.ID+"/uploads", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, "private-financials.pdf")

	// Покупатель не видит чужой приватный файл
	res, bodyStr = ts.SendRequest(t, "GET", "/api/v1/tracker?token="+buyer.TrackerToken, "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotContains(t, bodyStr, "private-financials.pdf")
	t.Logf("ФАЙЛЫ: Приватная видимость - Успешно.")
}
