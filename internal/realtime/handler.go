package realtime

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"shortsale_backend/internal/auth"
	"shortsale_backend/internal/logger"
	"shortsale_backend/internal/repositories"
	"shortsale_backend/pkg/contextkeys"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // продакшн: проверка origin
	},
}

// Handler поднимает WebSocket-подключения к трекеру сделки.
// Аутентификацию делает middleware, здесь проверка охвата по БД.
type Handler struct {
	broker    *Broker
	txRepo    repositories.TransactionRepository
	partyRepo repositories.PartyRepository
}

func NewHandler(broker *Broker, txRepo repositories.TransactionRepository, partyRepo repositories.PartyRepository) *Handler {
	return &Handler{broker: broker, txRepo: txRepo, partyRepo: partyRepo}
}

// ServeTransaction подключает переговорщика к живой ленте сделки.
func (h *Handler) ServeTransaction(c *gin.Context) {
	transactionID := c.Param("id")
	h.serve(c, transactionID)
}

// ServeTracker подключает сторону сделки по её токен-ссылке.
// Middleware уже проверила токен и положила principal в контекст.
func (h *Handler) ServeTracker(c *gin.Context) {
	principal := principalFrom(c)
	if principal == nil || principal.TransactionID == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	h.serve(c, principal.TransactionID)
}

func (h *Handler) serve(c *gin.Context, transactionID string) {
	principal := principalFrom(c)
	if principal == nil || !principal.ScopedTo(transactionID) {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	// Токен уже привязан к сделке. Сессию сверяем с БД:
	// владелец сделки либо её участник.
	if principal.Source == auth.PrincipalSourceSession {
		if !h.sessionAllowed(c, principal, transactionID) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := newClient(h.broker, conn, transactionID)
	h.broker.register <- client

	go client.readPump()
	go client.writePump()
}

func (h *Handler) sessionAllowed(c *gin.Context, principal *auth.Principal, transactionID string) bool {
	db := dbFrom(c)
	if db == nil {
		return false
	}

	transaction, err := h.txRepo.FindByID(db, transactionID)
	if err != nil {
		return false
	}
	if transaction.NegotiatorID == principal.UserID {
		return true
	}

	_, err = h.partyRepo.Find(db, transactionID, principal.UserID)
	return err == nil
}

func principalFrom(c *gin.Context) *auth.Principal {
	value, exists := c.Get(string(contextkeys.PrincipalContextKey))
	if !exists {
		return nil
	}
	principal, ok := value.(*auth.Principal)
	if !ok {
		return nil
	}
	return principal
}

func dbFrom(c *gin.Context) *gorm.DB {
	value, exists := c.Get(string(contextkeys.DBContextKey))
	if !exists {
		return nil
	}
	db, ok := value.(*gorm.DB)
	if !ok {
		return nil
	}
	return db
}
