package realtime

import (
	"github.com/gorilla/websocket"

	"shortsale_backend/internal/logger"
)

// Client это одно WebSocket-подключение, наблюдающее за сделкой.
// Поток односторонний: сервер шлёт кадры, входящие сообщения игнорируются.
type Client struct {
	TransactionID string
	Conn          *websocket.Conn
	Send          chan Frame

	broker *Broker
}

func newClient(broker *Broker, conn *websocket.Conn, transactionID string) *Client {
	return &Client{
		TransactionID: transactionID,
		Conn:          conn,
		Send:          make(chan Frame, 16),
		broker:        broker,
	}
}

// readPump читает только ради обнаружения закрытия соединения.
func (c *Client) readPump() {
	defer func() {
		c.broker.unregister <- c
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("realtime read error", "error", err)
			}
			break
		}
	}
}

func (c *Client) writePump() {
	defer c.Conn.Close()

	for frame := range c.Send {
		if err := c.Conn.WriteJSON(frame); err != nil {
			logger.Debug("realtime write error", "error", err)
			break
		}
	}
}
