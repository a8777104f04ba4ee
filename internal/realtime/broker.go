package realtime

import (
	"context"
	"sync"

	"shortsale_backend/internal/events"
	"shortsale_backend/internal/logger"
)

// Frame это один кадр, уходящий клиенту по WebSocket.
type Frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Broker раздаёт события сделки всем, кто смотрит её трекер:
// переговорщику в кабинете и сторонам по токен-ссылке.
type Broker struct {
	clients    map[string]map[*Client]bool // transactionID -> клиенты
	register   chan *Client
	unregister chan *Client
	frames     chan routedFrame
	mu         sync.RWMutex
}

type routedFrame struct {
	transactionID string
	frame         Frame
}

func NewBroker() *Broker {
	return &Broker{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		frames:     make(chan routedFrame, 64),
	}
}

func (b *Broker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return

		case client := <-b.register:
			b.mu.Lock()
			if b.clients[client.TransactionID] == nil {
				b.clients[client.TransactionID] = make(map[*Client]bool)
			}
			b.clients[client.TransactionID][client] = true
			count := len(b.clients[client.TransactionID])
			b.mu.Unlock()
			logger.Debug("realtime client registered",
				"transaction_id", client.TransactionID,
				"watchers", count,
			)

		case client := <-b.unregister:
			b.mu.Lock()
			if watchers, ok := b.clients[client.TransactionID]; ok {
				if watchers[client] {
					delete(watchers, client)
					close(client.Send)
				}
				if len(watchers) == 0 {
					delete(b.clients, client.TransactionID)
				}
			}
			b.mu.Unlock()

		case routed := <-b.frames:
			b.broadcast(routed)
		}
	}
}

// HandleEvent подписывается на шину событий: каждое событие сделки
// превращается в кадр для её наблюдателей.
func (b *Broker) HandleEvent(_ context.Context, event events.Event) {
	b.Publish(event.Transaction(), Frame{
		Type: event.Kind(),
		Data: event,
	})
}

// Publish не блокирует: при переполнении кадр теряется,
// клиент получит актуальное состояние при следующем запросе.
func (b *Broker) Publish(transactionID string, frame Frame) {
	select {
	case b.frames <- routedFrame{transactionID: transactionID, frame: frame}:
	default:
		logger.Warn("realtime frame queue full, dropping frame",
			"transaction_id", transactionID,
			"type", frame.Type,
		)
	}
}

func (b *Broker) broadcast(routed routedFrame) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for client := range b.clients[routed.transactionID] {
		select {
		case client.Send <- routed.frame:
		default:
			// Канал заполнен, клиент отключается
			go func(c *Client) {
				b.unregister <- c
			}(client)
		}
	}
}

func (b *Broker) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for txID, watchers := range b.clients {
		for client := range watchers {
			close(client.Send)
		}
		delete(b.clients, txID)
	}
}

// WatcherCount возвращает число наблюдателей сделки.
func (b *Broker) WatcherCount(transactionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[transactionID])
}
