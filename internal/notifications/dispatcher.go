package notifications

import (
	"context"
	"encoding/json"

	"shortsale_backend/internal/auth"
	"shortsale_backend/internal/events"
	"shortsale_backend/internal/logger"
	"shortsale_backend/internal/models"
	"shortsale_backend/internal/repositories"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DeliveryQueue enqueues a stored notification for background delivery.
// Implemented by the asynq distributor; kept as a small interface so the
// dispatcher stays testable without Redis.
type DeliveryQueue interface {
	EnqueueDelivery(ctx context.Context, notificationID string) error
}

// Dispatcher переводит доменные события в строки notifications и ставит
// их в очередь доставки. Одна строка = один получатель + один канал.
// Сбой на одном получателе не трогает остальных.
type Dispatcher struct {
	db               *gorm.DB
	partyRepo        repositories.PartyRepository
	tokenRepo        repositories.AccessTokenRepository
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	queue            DeliveryQueue
}

func NewDispatcher(
	db *gorm.DB,
	partyRepo repositories.PartyRepository,
	tokenRepo repositories.AccessTokenRepository,
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	queue DeliveryQueue,
) *Dispatcher {
	return &Dispatcher{
		db:               db,
		partyRepo:        partyRepo,
		tokenRepo:        tokenRepo,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		queue:            queue,
	}
}

// recipient - адресат одной рассылки
type recipient struct {
	userID     *string
	email      string
	trackerURL string
}

// HandleEvent is the bus subscriber. Unknown and realtime-only kinds
// are ignored silently.
func (d *Dispatcher) HandleEvent(ctx context.Context, event events.Event) {
	db := d.db.WithContext(ctx)

	switch e := event.(type) {
	case events.PartyInvited:
		d.handlePartyInvited(ctx, db, e)
	case events.PhaseChanged:
		d.handlePhaseChanged(ctx, db, e)
	case events.DocumentRequested:
		d.handleDocumentRequested(ctx, db, e)
	case events.DocumentRequestReminder:
		d.handleDocumentRequestReminder(ctx, db, e)
	case events.NewMessage:
		d.handleNewMessage(ctx, db, e)
	}
}

func (d *Dispatcher) handlePartyInvited(ctx context.Context, db *gorm.DB, event events.PartyInvited) {
	subject, body, err := ComposeInvite(event)
	if err != nil {
		logger.Error("compose invite failed", "transaction_id", event.TransactionID, "error", err)
		return
	}

	userID := event.UserID
	d.deliver(ctx, db, event.TransactionID, models.NotificationTypePartyInvited,
		[]recipient{{userID: &userID, email: event.Email, trackerURL: event.TrackerURL}},
		subject, body, map[string]any{
			"tracker_url": event.TrackerURL,
			"role":        string(event.Role),
			"reinvite":    event.Reinvite,
		})
}

func (d *Dispatcher) handlePhaseChanged(ctx context.Context, db *gorm.DB, event events.PhaseChanged) {
	recipients, err := d.transactionRecipients(db, event.TransactionID, "", event.ActorID)
	if err != nil {
		logger.Error("resolve recipients failed", "transaction_id", event.TransactionID, "error", err)
		return
	}

	for _, rcpt := range recipients {
		subject, body, err := ComposePhaseChange(event, rcpt.trackerURL)
		if err != nil {
			logger.Error("compose phase change failed", "transaction_id", event.TransactionID, "error", err)
			continue
		}
		d.deliver(ctx, db, event.TransactionID, models.NotificationTypePhaseChanged,
			[]recipient{rcpt}, subject, body, map[string]any{
				"phase":       string(event.Phase),
				"tracker_url": rcpt.trackerURL,
			})
	}
}

func (d *Dispatcher) handleDocumentRequested(ctx context.Context, db *gorm.DB, event events.DocumentRequested) {
	recipients, err := d.transactionRecipients(db, event.TransactionID, event.AssignedRole, "")
	if err != nil {
		logger.Error("resolve recipients failed", "transaction_id", event.TransactionID, "error", err)
		return
	}

	for _, rcpt := range recipients {
		subject, body, err := ComposeDocumentRequest(event, rcpt.trackerURL)
		if err != nil {
			logger.Error("compose document request failed", "transaction_id", event.TransactionID, "error", err)
			continue
		}
		d.deliver(ctx, db, event.TransactionID, models.NotificationTypeDocumentRequested,
			[]recipient{rcpt}, subject, body, map[string]any{
				"request_id":  event.RequestID,
				"doc_type":    event.DocType,
				"tracker_url": rcpt.trackerURL,
			})
	}
}

func (d *Dispatcher) handleDocumentRequestReminder(ctx context.Context, db *gorm.DB, event events.DocumentRequestReminder) {
	recipients, err := d.transactionRecipients(db, event.TransactionID, event.AssignedRole, "")
	if err != nil {
		logger.Error("resolve recipients failed", "transaction_id", event.TransactionID, "error", err)
		return
	}

	for _, rcpt := range recipients {
		subject, body, err := ComposeDocumentReminder(event, rcpt.trackerURL)
		if err != nil {
			logger.Error("compose reminder failed", "transaction_id", event.TransactionID, "error", err)
			continue
		}
		d.deliver(ctx, db, event.TransactionID, models.NotificationTypeDocumentRequestReminder,
			[]recipient{rcpt}, subject, body, map[string]any{
				"request_id":  event.RequestID,
				"doc_type":    event.DocType,
				"tracker_url": rcpt.trackerURL,
			})
	}
}

func (d *Dispatcher) handleNewMessage(ctx context.Context, db *gorm.DB, event events.NewMessage) {
	senderID := ""
	if event.SenderID != nil {
		senderID = *event.SenderID
	}

	recipients, err := d.transactionRecipients(db, event.TransactionID, "", senderID)
	if err != nil {
		logger.Error("resolve recipients failed", "transaction_id", event.TransactionID, "error", err)
		return
	}

	for _, rcpt := range recipients {
		subject, body, err := ComposeNewMessage(event, rcpt.trackerURL)
		if err != nil {
			logger.Error("compose message failed", "transaction_id", event.TransactionID, "error", err)
			continue
		}
		d.deliver(ctx, db, event.TransactionID, models.NotificationTypeNewMessage,
			[]recipient{rcpt}, subject, body, map[string]any{
				"message_id":  event.MessageID,
				"tracker_url": rcpt.trackerURL,
			})
	}
}

// transactionRecipients собирает адресатов: все участники сделки, либо
// только участники с ролью role; excludeUserID - автор события, самому
// себе уведомление не шлём.
func (d *Dispatcher) transactionRecipients(db *gorm.DB, transactionID string, role models.PartyRole, excludeUserID string) ([]recipient, error) {
	parties, err := d.partyRepo.FindByTransaction(db, transactionID)
	if err != nil {
		return nil, err
	}

	tokens, err := d.tokenRepo.FindByTransaction(db, transactionID)
	if err != nil {
		return nil, err
	}
	trackerURLs := make(map[string]string, len(tokens))
	for _, token := range tokens {
		trackerURLs[token.Email] = auth.TrackerURL(token.Token)
	}

	recipients := make([]recipient, 0, len(parties))
	for i := range parties {
		party := &parties[i]
		if role != "" && party.Role != role {
			continue
		}
		if excludeUserID != "" && party.UserID == excludeUserID {
			continue
		}
		if party.User == nil {
			continue
		}
		userID := party.UserID
		recipients = append(recipients, recipient{
			userID:     &userID,
			email:      party.User.Email,
			trackerURL: trackerURLs[party.User.Email],
		})
	}

	return recipients, nil
}

// deliver создаёт строки notifications (email всегда, push - если у
// получателя есть зарегистрированные устройства) и ставит их в очередь.
func (d *Dispatcher) deliver(ctx context.Context, db *gorm.DB, transactionID string, notificationType models.NotificationType, recipients []recipient, subject, body string, data map[string]any) {
	payload, err := json.Marshal(data)
	if err != nil {
		logger.Error("marshal notification data failed", "transaction_id", transactionID, "error", err)
		payload = []byte("{}")
	}

	for _, rcpt := range recipients {
		channels := []models.NotificationChannel{models.NotificationChannelEmail}
		if rcpt.userID != nil {
			devices, err := d.userRepo.FindDeviceTokensByUsers(db, []string{*rcpt.userID})
			if err != nil {
				logger.Warn("device token lookup failed", "user_id", *rcpt.userID, "error", err)
			} else if len(devices) > 0 {
				channels = append(channels, models.NotificationChannelPush)
			}
		}

		for _, channel := range channels {
			row := &models.Notification{
				TransactionID:  transactionID,
				RecipientID:    rcpt.userID,
				RecipientEmail: rcpt.email,
				Type:           notificationType,
				Channel:        channel,
				Subject:        subject,
				Body:           body,
				Data:           datatypes.JSON(payload),
				Status:         models.NotificationStatusQueued,
			}
			if err := d.notificationRepo.Create(db, row); err != nil {
				logger.Error("store notification failed",
					"transaction_id", transactionID,
					"recipient", rcpt.email,
					"channel", channel,
					"error", err,
				)
				continue
			}
			if err := d.queue.EnqueueDelivery(ctx, row.ID); err != nil {
				// Строка остаётся queued, её можно добрать вручную.
				logger.Error("enqueue delivery failed",
					"notification_id", row.ID,
					"channel", channel,
					"error", err,
				)
			}
		}
	}
}
