package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"sync"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"shortsale_backend/database"
	"shortsale_backend/internal/app"
	"shortsale_backend/internal/config"
	"shortsale_backend/internal/events"
	"shortsale_backend/internal/realtime"
)

// TestServer поднимает полный HTTP-стек приложения поверх тестовой БД.
// Вместо Redis-очереди подключен QueueRecorder: строки notifications
// создаются по-настоящему, а постановка в очередь просто записывается.
type TestServer struct {
	Server *httptest.Server
	DB     *gorm.DB
	Queue  *QueueRecorder
	Broker *realtime.Broker

	cancel context.CancelFunc
}

// QueueRecorder реализует notifications.DeliveryQueue в памяти.
type QueueRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (q *QueueRecorder) EnqueueDelivery(_ context.Context, notificationID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, notificationID)
	return nil
}

// Enqueued возвращает снимок всех поставленных в очередь ID.
func (q *QueueRecorder) Enqueued() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.ids))
	copy(out, q.ids)
	return out
}

// NewTestServer создает и настраивает тестовый сервер и БД.
// Конфиг собирается из переменных окружения (DATABASE_URL и т.д.).
func NewTestServer(t *testing.T) *TestServer {
	config.LoadConfig()
	cfg := config.GetConfig()
	dsn := cfg.Database.DSN

	// Файлы уходят во временный каталог, а не в рабочее дерево
	uploadsDir, err := os.MkdirTemp("", "shortsale-test-uploads-*")
	if err != nil {
		t.Fatalf("Не удалось создать временный каталог для загрузок: %v", err)
	}
	cfg.Storage.BasePath = uploadsDir

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("Не удалось подключиться к тестовой БД (%s): %v", dsn, err)
	}

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Не удалось выполнить AutoMigrate для тестовой БД: %v", err)
	}

	bus := events.NewBus()
	broker := realtime.NewBroker()
	queue := &QueueRecorder{}

	router, _ := app.SetupRouter(cfg, db, bus, broker, queue)

	ctx, cancel := context.WithCancel(context.Background())
	go bus.Run(ctx)
	go broker.Run(ctx)

	server := httptest.NewServer(router)

	log.Printf("✅ Тестовый сервер запущен, тестовая БД (%s) настроена.", dsn)

	return &TestServer{
		Server: server,
		DB:     db,
		Queue:  queue,
		Broker: broker,
		cancel: cancel,
	}
}

func (ts *TestServer) Close() {
	ts.cancel()
	ts.Server.Close()
	sqlDB, _ := ts.DB.DB()
	sqlDB.Close()
}

// ClearTables очищает все таблицы. Вызывается один раз при старте
// прогона: сами тесты изолируются уникальными email-ами, а не TRUNCATE.
func (ts *TestServer) ClearTables() {
	log.Println("--- ОЧИСТКА ТАБЛИЦ ---")

	err := ts.DB.Exec("TRUNCATE TABLE users, refresh_tokens, device_tokens, transactions, parties, access_tokens, document_requests, uploads, messages, phase_history_entries, notifications RESTART IDENTITY CASCADE").Error
	if err != nil {
		log.Fatalf("Не удалось очистить таблицы: %v", err)
	}
}

// SendRequest шлет JSON-запрос на тестовый сервер.
func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	url := ts.Server.URL + path

	var reqBody io.Reader = nil
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Ошибка кодирования JSON для запроса: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("Ошибка создания HTTP-запроса: %v", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("Ошибка отправки HTTP-запроса: %v", err)
	}

	resBodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("Ошибка чтения тела ответа: %v", err)
	}
	defer res.Body.Close()

	return res, string(resBodyBytes)
}

// SendMultipart шлет multipart/form-data запрос с одним файлом.
// Content-Type части выставляется явно: сервис берет MIME из заголовка.
func (ts *TestServer) SendMultipart(t *testing.T, path, token string, fields map[string]string, fileName, fileContentType string, fileContent []byte) (*http.Response, string) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("Ошибка записи поля %s: %v", key, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set("Content-Type", fileContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("Ошибка создания файловой части: %v", err)
	}
	if _, err := part.Write(fileContent); err != nil {
		t.Fatalf("Ошибка записи файла: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Ошибка закрытия multipart writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+path, &buf)
	if err != nil {
		t.Fatalf("Ошибка создания HTTP-запроса: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("Ошибка отправки multipart-запроса: %v", err)
	}

	resBodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("Ошибка чтения тела ответа: %v", err)
	}
	defer res.Body.Close()

	return res, string(resBodyBytes)
}

// WebSocketURL переводит адрес тестового сервера в ws-схему.
func (ts *TestServer) WebSocketURL(path string) string {
	return "ws" + strings.TrimPrefix(ts.Server.URL, "http") + path
}
