package events

import (
	"context"
	"sync"
	"time"

	"shortsale_backend/internal/logger"
	"shortsale_backend/internal/models"
)

// Event is something that already happened inside a transaction.
// Publishers fire events after their DB transaction commits; subscribers
// (notification dispatcher, realtime broker) never see uncommitted state.
type Event interface {
	Kind() string
	Transaction() string
}

const (
	KindPartyInvited            = "party_invited"
	KindPhaseChanged            = "phase_changed"
	KindDocumentRequested       = "document_requested"
	KindDocumentRequestReminder = "document_request_reminder"
	KindNewMessage              = "new_message"

	// Realtime-only kinds, the notification dispatcher ignores them.
	KindPartyUpdated           = "party_updated"
	KindDocumentRequestUpdated = "document_request_updated"
)

type PartyInvited struct {
	TransactionID    string           `json:"transaction_id"`
	TransactionTitle string           `json:"transaction_title"`
	PartyID          string           `json:"party_id"`
	UserID           string           `json:"user_id"`
	Email            string           `json:"email"`
	Name             string           `json:"name"`
	Role             models.PartyRole `json:"role"`
	TrackerURL       string           `json:"tracker_url"`
	Reinvite         bool             `json:"reinvite"`
}

func (e PartyInvited) Kind() string        { return KindPartyInvited }
func (e PartyInvited) Transaction() string { return e.TransactionID }

type PhaseChanged struct {
	TransactionID    string       `json:"transaction_id"`
	TransactionTitle string       `json:"transaction_title"`
	Phase            models.Phase `json:"phase"`
	ActorID          string       `json:"actor_id"`
}

func (e PhaseChanged) Kind() string        { return KindPhaseChanged }
func (e PhaseChanged) Transaction() string { return e.TransactionID }

type DocumentRequested struct {
	TransactionID    string           `json:"transaction_id"`
	TransactionTitle string           `json:"transaction_title"`
	RequestID        string           `json:"request_id"`
	DocType          string           `json:"doc_type"`
	AssignedRole     models.PartyRole `json:"assigned_role"`
	DueDate          *time.Time       `json:"due_date,omitempty"`
}

func (e DocumentRequested) Kind() string        { return KindDocumentRequested }
func (e DocumentRequested) Transaction() string { return e.TransactionID }

type DocumentRequestReminder struct {
	TransactionID    string           `json:"transaction_id"`
	TransactionTitle string           `json:"transaction_title"`
	RequestID        string           `json:"request_id"`
	DocType          string           `json:"doc_type"`
	AssignedRole     models.PartyRole `json:"assigned_role"`
	RevisionNote     *string          `json:"revision_note,omitempty"`
	DueDate          *time.Time       `json:"due_date,omitempty"`
}

func (e DocumentRequestReminder) Kind() string        { return KindDocumentRequestReminder }
func (e DocumentRequestReminder) Transaction() string { return e.TransactionID }

type NewMessage struct {
	TransactionID    string  `json:"transaction_id"`
	TransactionTitle string  `json:"transaction_title"`
	MessageID        string  `json:"message_id"`
	SenderID         *string `json:"sender_id,omitempty"`
	SenderName       string  `json:"sender_name"`
	Text             string  `json:"text"`
	ReplyToID        *string `json:"reply_to_id,omitempty"`
}

func (e NewMessage) Kind() string        { return KindNewMessage }
func (e NewMessage) Transaction() string { return e.TransactionID }

type PartyUpdated struct {
	TransactionID string             `json:"transaction_id"`
	PartyID       string             `json:"party_id"`
	Status        models.PartyStatus `json:"status"`
	LastAction    *string            `json:"last_action,omitempty"`
}

func (e PartyUpdated) Kind() string        { return KindPartyUpdated }
func (e PartyUpdated) Transaction() string { return e.TransactionID }

type DocumentRequestUpdated struct {
	TransactionID string                       `json:"transaction_id"`
	RequestID     string                       `json:"request_id"`
	DocType       string                       `json:"doc_type"`
	Status        models.DocumentRequestStatus `json:"status"`
}

func (e DocumentRequestUpdated) Kind() string        { return KindDocumentRequestUpdated }
func (e DocumentRequestUpdated) Transaction() string { return e.TransactionID }

// ---------------- Bus ----------------

type Handler func(ctx context.Context, event Event)

// Bus раздаёт события подписчикам из одной горутины.
// Publish никогда не блокирует путь запроса: при переполнении
// очереди событие теряется с предупреждением в логе.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	queue    chan Event
}

func NewBus() *Bus {
	return &Bus{
		queue: make(chan Event, 256),
	}
}

func (b *Bus) Subscribe(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

func (b *Bus) Publish(event Event) {
	select {
	case b.queue <- event:
	default:
		logger.Warn("event bus queue full, dropping event",
			"kind", event.Kind(),
			"transaction_id", event.Transaction(),
		)
	}
}

// Run работает до отмены контекста. Паника одного подписчика
// не должна валить остальных.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-b.queue:
			b.dispatch(ctx, event)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("event handler panicked",
						"kind", event.Kind(),
						"transaction_id", event.Transaction(),
						"panic", r,
					)
				}
			}()
			handler(ctx, event)
		}()
	}
}
