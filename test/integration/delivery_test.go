package integration_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortsale_backend/internal/email"
	"shortsale_backend/internal/notifications"
	"shortsale_backend/internal/push"
	"shortsale_backend/internal/repositories"
	"shortsale_backend/internal/services"
	"shortsale_backend/internal/tasks"
	"shortsale_backend/test/helpers"
)

// selectiveProvider роняет отправку на одном адресе и считает остальные
type selectiveProvider struct {
	mu      sync.Mutex
	failFor string
	sent    []string
}

func (p *selectiveProvider) Send(_ context.Context, msg *email.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if msg.To == p.failFor {
		return errors.New("smtp: connection refused")
	}
	p.sent = append(p.sent, msg.To)
	return nil
}

func (p *selectiveProvider) sentTo(addr string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	count := 0
	for _, to := range p.sent {
		if to == addr {
			count++
		}
	}
	return count
}

func newTestProcessor(ts *helpers.TestServer, provider email.Provider) *tasks.TaskProcessor {
	tokenRepo := repositories.NewAccessTokenRepository()
	txRepo := repositories.NewTransactionRepository()
	partyRepo := repositories.NewPartyRepository()
	requestRepo := repositories.NewDocumentRequestRepository()
	messageRepo := repositories.NewMessageRepository()
	userRepo := repositories.NewUserRepository()
	historyRepo := repositories.NewPhaseHistoryRepository()

	tokenService := services.NewAccessTokenService(tokenRepo, txRepo, partyRepo, requestRepo, messageRepo, userRepo)
	digestService := services.NewDigestService(txRepo, historyRepo, requestRepo, messageRepo, tokenService)

	return tasks.NewTaskProcessor(ts.DB, provider, push.NewLogSender(),
		repositories.NewNotificationRepository(), tokenRepo, userRepo, digestService)
}

func deliverTask(t *testing.T, processor *tasks.TaskProcessor, notificationID string) error {
	t.Helper()
	payload, err := json.Marshal(tasks.NotificationDeliverPayload{NotificationID: notificationID})
	require.NoError(t, err)
	return processor.HandleNotificationDeliverTask(context.Background(), asynq.NewTask(tasks.TypeNotificationDeliver, payload))
}

// TestDelivery_FailureIsolation - сбой на одном получателе не трогает
// остальных и не откатывает саму смену фазы
func TestDelivery_FailureIsolation(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")
	tx := CreateTestTransaction(t, ts, token, "31 Foxglove Way", "31 Foxglove Way")

	buyerEmail := helpers.UniqueEmail("buyer")
	sellerEmail := helpers.UniqueEmail("seller")
	agentEmail := helpers.UniqueEmail("agent")
	AddTestParty(t, ts, token, tx.ID, buyerEmail, "Bill Buyer", "buyer")
	AddTestParty(t, ts, token, tx.ID, sellerEmail, "Jane Seller", "seller")
	AddTestParty(t, ts, token, tx.ID, agentEmail, "Amy Agent", "agent")

	res, bodyStr := ts.SendRequest(t, "PUT", "/api/v1/transactions/"+tx.ID+"/phase", token, map[string]interface{}{
		"phase": "document-collection",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)

	// Диспетчер пишет по одной email-строке на каждую сторону
	rowByEmail := map[string]string{}
	require.Eventually(t, func() bool {
		var rows []struct {
			ID             string
			RecipientEmail string
		}
		ts.DB.Raw(
			"SELECT id, recipient_email FROM notifications WHERE transaction_id = ? AND type = 'phase_changed' AND channel = 'email'",
			tx.ID,
		).Scan(&rows)
		for _, row := range rows {
			rowByEmail[row.RecipientEmail] = row.ID
		}
		return len(rowByEmail) == 3
	}, 5*time.Second, 50*time.Millisecond, "Ожидались 3 email-строки phase_changed")

	provider := &selectiveProvider{failFor: sellerEmail}
	processor := newTestProcessor(ts, provider)

	require.NoError(t, deliverTask(t, processor, rowByEmail[buyerEmail]))
	require.Error(t, deliverTask(t, processor, rowByEmail[sellerEmail]), "Сбойная доставка должна уйти в ретрай")
	require.NoError(t, deliverTask(t, processor, rowByEmail[agentEmail]))

	assert.Equal(t, 1, provider.sentTo(buyerEmail))
	assert.Equal(t, 1, provider.sentTo(agentEmail))
	assert.Equal(t, 0, provider.sentTo(sellerEmail))

	notificationRepo := repositories.NewNotificationRepository()
	sent, err := notificationRepo.FindByID(ts.DB, rowByEmail[buyerEmail])
	require.NoError(t, err)
	assert.Equal(t, "sent", string(sent.Status))
	assert.NotNil(t, sent.SentAt)

	failed, err := notificationRepo.FindByID(ts.DB, rowByEmail[sellerEmail])
	require.NoError(t, err)
	assert.Equal(t, "failed", string(failed.Status))
	assert.Nil(t, failed.SentAt)
	require.NotNil(t, failed.LastError)
	assert.Contains(t, *failed.LastError, "connection refused")

	// Сама мутация не откатывается никаким исходом доставки
	res, bodyStr = ts.SendRequest(t, "GET", "/api/v1/transactions/"+tx.ID, token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, `"current_phase":"document-collection"`)

	// Повторная задача по уже отправленной строке письмо не дублирует
	require.NoError(t, deliverTask(t, processor, rowByEmail[buyerEmail]))
	assert.Equal(t, 1, provider.sentTo(buyerEmail))
	t.Logf("ДОСТАВКА: Изоляция сбоев (2 sent, 1 failed, без отката) - Успешно.")
}

// TestDelivery_WeeklyDigest - сводка за неделю собирается по токену и
// режется по роли
func TestDelivery_WeeklyDigest(t *testing.T) {
	t.Parallel()

	ts := GetTestServer(t)
	token, _ := helpers.RegisterNegotiator(t, ts, "Mark", helpers.UniqueEmail("negotiator"), "password123")
	tx := CreateTestTransaction(t, ts, token, "12 Harbor Ln", "12 Harbor Ln")
	seller := AddTestParty(t, ts, token, tx.ID, helpers.UniqueEmail("seller"), "Jane Seller", "seller")

	res, _ := ts.SendRequest(t, "PUT", "/api/v1/transactions/"+tx.ID+"/phase", token, map[string]interface{}{
		"phase": "document-collection",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = ts.SendRequest(t, "POST", "/api/v1/transactions/"+tx.ID+"/document-requests", token, map[string]interface{}{
		"doc_type":      "Bank Statement",
		"assigned_role": "seller",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	// Запрос на другую роль в сводку продавца попасть не должен
	res, _ = ts.SendRequest(t, "POST", "/api/v1/transactions/"+tx.ID+"/document-requests", token, map[string]interface{}{
		"doc_type":      "Proof of Funds",
		"assigned_role": "buyer",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res, _ = ts.SendRequest(t, "POST", "/api/v1/transactions/"+tx.ID+"/messages", token, map[string]interface{}{
		"text": "Please send the bank statement this week.",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	tokenRepo := repositories.NewAccessTokenRepository()
	accessToken, err := tokenRepo.FindByToken(ts.DB, seller.TrackerToken)
	require.NoError(t, err)

	txRepo := repositories.NewTransactionRepository()
	historyRepo := repositories.NewPhaseHistoryRepository()
	requestRepo := repositories.NewDocumentRequestRepository()
	messageRepo := repositories.NewMessageRepository()
	userRepo := repositories.NewUserRepository()
	partyRepo := repositories.NewPartyRepository()
	tokenService := services.NewAccessTokenService(tokenRepo, txRepo, partyRepo, requestRepo, messageRepo, userRepo)
	digestService := services.NewDigestService(txRepo, historyRepo, requestRepo, messageRepo, tokenService)

	since := time.Now().AddDate(0, 0, -7)
	digest, err := digestService.BuildWeeklyDigest(ts.DB, accessToken, since)
	require.NoError(t, err)

	assert.True(t, digest.HasActivity())
	assert.Equal(t, "12 Harbor Ln", digest.TransactionTitle)
	assert.Equal(t, "document-collection", string(digest.CurrentPhase))
	assert.Equal(t, "seller", string(digest.Role))
	assert.Contains(t, digest.TrackerURL, seller.TrackerToken)
	require.Len(t, digest.PhaseChanges, 1)
	assert.Equal(t, "document-collection", string(digest.PhaseChanges[0].Phase))

	require.Len(t, digest.DocumentRequests, 1, "Сводка продавца содержит только его запросы")
	assert.Equal(t, "Bank Statement", digest.DocumentRequests[0].DocType)

	// Приветственное сообщение трекера плюс новая ветка
	require.Len(t, digest.Messages, 2)

	subject, body, err := notifications.ComposeWeeklyDigest(digest)
	require.NoError(t, err)
	assert.Equal(t, "Weekly update: 12 Harbor Ln", subject)
	assert.Contains(t, body, "Bank Statement")
	assert.Contains(t, body, seller.TrackerToken)
	t.Logf("ДОСТАВКА: Еженедельная сводка (активность, срез по роли) - Успешно.")

	// Тихая неделя: окно без событий письма не даёт
	quiet, err := digestService.BuildWeeklyDigest(ts.DB, accessToken, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, quiet.HasActivity())
	t.Logf("ДОСТАВКА: Тихая неделя (без активности) - Успешно.")
}
