package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shortsale_backend/internal/config"
	"shortsale_backend/internal/email"
	"shortsale_backend/internal/logger"
	"shortsale_backend/internal/models"
	"shortsale_backend/internal/notifications"
	"shortsale_backend/internal/push"
	"shortsale_backend/internal/repositories"
	"shortsale_backend/internal/services"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

const (
	TypeNotificationDeliver = "notification:deliver"
	TypeWeeklyDigest        = "digest:weekly"
)

type NotificationDeliverPayload struct {
	NotificationID string `json:"notification_id"`
}

// RedisOpt собирает параметры подключения asynq из конфига.
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}

// ---------------- Distributor ----------------

// TaskDistributor кладёт задачи в Redis. Реализует
// notifications.DeliveryQueue.
type TaskDistributor struct {
	client *asynq.Client
}

func NewTaskDistributor(redisOpt asynq.RedisClientOpt) *TaskDistributor {
	return &TaskDistributor{client: asynq.NewClient(redisOpt)}
}

func (d *TaskDistributor) EnqueueDelivery(ctx context.Context, notificationID string) error {
	payload, err := json.Marshal(NotificationDeliverPayload{NotificationID: notificationID})
	if err != nil {
		return fmt.Errorf("marshal delivery payload: %w", err)
	}

	task := asynq.NewTask(TypeNotificationDeliver, payload, asynq.MaxRetry(5))
	if _, err := d.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s: %w", TypeNotificationDeliver, err)
	}
	return nil
}

func (d *TaskDistributor) Close() error {
	return d.client.Close()
}

// ---------------- Processor ----------------

// TaskProcessor обрабатывает фоновые задачи: доставку отдельных
// уведомлений и еженедельный дайджест.
type TaskProcessor struct {
	db               *gorm.DB
	emailProvider    email.Provider
	pushSender       push.Sender
	notificationRepo repositories.NotificationRepository
	tokenRepo        repositories.AccessTokenRepository
	userRepo         repositories.UserRepository
	digestService    services.DigestService
}

func NewTaskProcessor(
	db *gorm.DB,
	emailProvider email.Provider,
	pushSender push.Sender,
	notificationRepo repositories.NotificationRepository,
	tokenRepo repositories.AccessTokenRepository,
	userRepo repositories.UserRepository,
	digestService services.DigestService,
) *TaskProcessor {
	return &TaskProcessor{
		db:               db,
		emailProvider:    emailProvider,
		pushSender:       pushSender,
		notificationRepo: notificationRepo,
		tokenRepo:        tokenRepo,
		userRepo:         userRepo,
		digestService:    digestService,
	}
}

// HandleNotificationDeliverTask отправляет одну строку notifications
// по её каналу и записывает исход в ту же строку.
func (p *TaskProcessor) HandleNotificationDeliverTask(ctx context.Context, t *asynq.Task) error {
	var payload NotificationDeliverPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal delivery payload: %v: %w", err, asynq.SkipRetry)
	}

	db := p.db.WithContext(ctx)

	notification, err := p.notificationRepo.FindByID(db, payload.NotificationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return fmt.Errorf("notification %s gone: %w", payload.NotificationID, asynq.SkipRetry)
		}
		return err
	}

	// Ретрай после частичного сбоя не должен слать письмо второй раз.
	if notification.Status == models.NotificationStatusSent {
		return nil
	}

	sendTimeout := time.Duration(config.GetConfig().Notify.SendTimeout) * time.Second
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	var sendErr error
	switch notification.Channel {
	case models.NotificationChannelEmail:
		sendErr = p.emailProvider.Send(sendCtx, &email.Message{
			To:       notification.RecipientEmail,
			Subject:  notification.Subject,
			HTMLBody: notification.Body,
		})

	case models.NotificationChannelPush:
		sendErr = p.sendPush(sendCtx, db, notification)
		if sendErr != nil && isUndeliverable(sendErr) {
			p.recordFailure(db, notification.ID, sendErr)
			return fmt.Errorf("%v: %w", sendErr, asynq.SkipRetry)
		}

	default:
		p.recordFailure(db, notification.ID, fmt.Errorf("unknown channel %s", notification.Channel))
		return fmt.Errorf("unknown channel %s: %w", notification.Channel, asynq.SkipRetry)
	}

	if sendErr != nil {
		p.recordFailure(db, notification.ID, sendErr)
		return sendErr
	}

	now := time.Now()
	if err := p.notificationRepo.UpdateDelivery(db, notification.ID, models.NotificationStatusSent, &now, nil); err != nil {
		logger.Error("mark notification sent failed", "notification_id", notification.ID, "error", err)
	}
	return nil
}

var (
	errNoDevices = errors.New("recipient has no registered devices")
	errNoAccount = errors.New("recipient has no account")
)

func isUndeliverable(err error) bool {
	return errors.Is(err, errNoDevices) || errors.Is(err, errNoAccount)
}

func (p *TaskProcessor) sendPush(ctx context.Context, db *gorm.DB, notification *models.Notification) error {
	if notification.RecipientID == nil {
		return errNoAccount
	}

	devices, err := p.userRepo.FindDeviceTokensByUsers(db, []string{*notification.RecipientID})
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return errNoDevices
	}

	tokens := make([]string, 0, len(devices))
	for _, device := range devices {
		tokens = append(tokens, device.Token)
	}

	title, body := notifications.PushText(notification.Type, notification.Subject)
	result, err := p.pushSender.SendMulticast(ctx, tokens, title, body, map[string]string{
		"type":           string(notification.Type),
		"transaction_id": notification.TransactionID,
	})
	if err != nil {
		return err
	}
	if result.SuccessCount == 0 && result.FailureCount > 0 {
		return fmt.Errorf("push rejected for all %d devices", result.FailureCount)
	}
	return nil
}

func (p *TaskProcessor) recordFailure(db *gorm.DB, id string, sendErr error) {
	errText := sendErr.Error()
	if err := p.notificationRepo.UpdateDelivery(db, id, models.NotificationStatusFailed, nil, &errText); err != nil {
		logger.Error("mark notification failed failed", "notification_id", id, "error", err)
	}
}

// HandleWeeklyDigestTask обходит все подписанные токены и шлёт каждому
// сводку за неделю. Сбой на одном подписчике не прерывает рассылку.
func (p *TaskProcessor) HandleWeeklyDigestTask(ctx context.Context, t *asynq.Task) error {
	db := p.db.WithContext(ctx)

	tokens, err := p.tokenRepo.FindSubscribed(db)
	if err != nil {
		return fmt.Errorf("load subscribed tokens: %w", err)
	}

	since := time.Now().AddDate(0, 0, -7)
	now := time.Now()
	sent, skipped, failed := 0, 0, 0

	for i := range tokens {
		token := &tokens[i]
		if !token.Valid(now) {
			skipped++
			continue
		}

		digest, err := p.digestService.BuildWeeklyDigest(db, token, since)
		if err != nil {
			logger.Error("build digest failed",
				"transaction_id", token.TransactionID,
				"email", token.Email,
				"error", err,
			)
			failed++
			continue
		}
		if !digest.HasActivity() {
			skipped++
			continue
		}

		subject, body, err := notifications.ComposeWeeklyDigest(digest)
		if err != nil {
			logger.Error("compose digest failed", "transaction_id", token.TransactionID, "error", err)
			failed++
			continue
		}

		row := &models.Notification{
			TransactionID:  token.TransactionID,
			RecipientEmail: token.Email,
			Type:           models.NotificationTypeWeeklyDigest,
			Channel:        models.NotificationChannelEmail,
			Subject:        subject,
			Body:           body,
			Status:         models.NotificationStatusQueued,
		}
		if user, err := p.userRepo.FindByEmail(db, token.Email); err == nil {
			row.RecipientID = &user.ID
		}
		if err := p.notificationRepo.Create(db, row); err != nil {
			logger.Error("store digest notification failed", "email", token.Email, "error", err)
			failed++
			continue
		}

		sendTimeout := time.Duration(config.GetConfig().Notify.SendTimeout) * time.Second
		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		sendErr := p.emailProvider.Send(sendCtx, &email.Message{
			To:       token.Email,
			Subject:  subject,
			HTMLBody: body,
		})
		cancel()

		if sendErr != nil {
			p.recordFailure(db, row.ID, sendErr)
			failed++
			continue
		}

		sentAt := time.Now()
		if err := p.notificationRepo.UpdateDelivery(db, row.ID, models.NotificationStatusSent, &sentAt, nil); err != nil {
			logger.Error("mark digest sent failed", "notification_id", row.ID, "error", err)
		}
		sent++
	}

	logger.Info("weekly digest finished", "sent", sent, "skipped", skipped, "failed", failed)
	return nil
}

// ---------------- Server / Scheduler ----------------

// NewServer настраивает воркер очереди. Handler-ы регистрируются в mux
// здесь же, отдельного роутера для двух типов задач не нужно.
func NewServer(redisOpt asynq.RedisClientOpt, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("task failed", "type", task.Type(), "error", err)
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeNotificationDeliver, processor.HandleNotificationDeliverTask)
	mux.HandleFunc(TypeWeeklyDigest, processor.HandleWeeklyDigestTask)

	return srv, mux
}

// NewScheduler регистрирует еженедельный дайджест по cron-выражению
// из конфига (по умолчанию пятница 17:00 UTC).
func NewScheduler(redisOpt asynq.RedisClientOpt, cron string) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Location: time.UTC})

	task := asynq.NewTask(TypeWeeklyDigest, nil, asynq.MaxRetry(2))
	if _, err := scheduler.Register(cron, task); err != nil {
		return nil, fmt.Errorf("register digest schedule %q: %w", cron, err)
	}

	return scheduler, nil
}
