package services

import (
	"errors"

	"shortsale_backend/internal/auth"
	"shortsale_backend/internal/events"
	"shortsale_backend/internal/models"
	"shortsale_backend/internal/repositories"
	"shortsale_backend/internal/services/dto"
	"shortsale_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type MessageService interface {
	Post(db *gorm.DB, principal auth.Principal, transactionID string, req dto.PostMessageRequest) (*dto.MessageResponse, error)
	ListThreads(db *gorm.DB, principal auth.Principal, transactionID string, page, pageSize int) (*dto.MessageListResponse, error)
}

type MessageServiceImpl struct {
	txRepo      repositories.TransactionRepository
	partyRepo   repositories.PartyRepository
	messageRepo repositories.MessageRepository
	userRepo    repositories.UserRepository
	bus         *events.Bus
}

func NewMessageService(
	txRepo repositories.TransactionRepository,
	partyRepo repositories.PartyRepository,
	messageRepo repositories.MessageRepository,
	userRepo repositories.UserRepository,
	bus *events.Bus,
) MessageService {
	return &MessageServiceImpl{
		txRepo:      txRepo,
		partyRepo:   partyRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		bus:         bus,
	}
}

// Post writes a message into the transaction's board. Top-level posts
// open a thread and are negotiator-only; replies are open to every
// participant but must point at a top-level message of the same
// transaction. Threads are two levels deep, there is no reply-to-reply.
func (s *MessageServiceImpl) Post(db *gorm.DB, principal auth.Principal, transactionID string, req dto.PostMessageRequest) (*dto.MessageResponse, error) {
	transaction, err := loadScopedTransaction(db, s.txRepo, s.partyRepo, principal, transactionID)
	if err != nil {
		return nil, err
	}

	sender, err := resolvePrincipalUser(db, s.userRepo, principal)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.NewUnauthenticatedError("Unknown sender")
		}
		return nil, apperrors.InternalError(err)
	}

	if req.ReplyToID == nil {
		if !auth.CanPostTopLevelMessage(principal.Role) {
			return nil, apperrors.ErrTopLevelMessageForbidden
		}
	} else {
		parent, err := s.messageRepo.FindByID(db, *req.ReplyToID)
		if err != nil {
			if errors.Is(err, repositories.ErrMessageNotFound) {
				return nil, apperrors.ErrNotFound(err)
			}
			return nil, apperrors.InternalError(err)
		}
		if parent.TransactionID != transaction.ID {
			return nil, apperrors.ErrReplyParentMismatch
		}
		if parent.ReplyToID != nil {
			return nil, apperrors.ValidationError("replies may only target top-level messages")
		}
	}

	message := &models.Message{
		TransactionID: transaction.ID,
		SenderID:      &sender.ID,
		Text:          req.Text,
		ReplyToID:     req.ReplyToID,
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.messageRepo.Create(tx, message); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.txRepo.Touch(tx, transaction.ID); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.publish(events.NewMessage{
		TransactionID:    transaction.ID,
		TransactionTitle: transaction.Title,
		MessageID:        message.ID,
		SenderID:         message.SenderID,
		SenderName:       sender.Name,
		Text:             message.Text,
		ReplyToID:        message.ReplyToID,
	})

	message.Sender = sender
	resp := toMessageResponse(message)
	return &resp, nil
}

// ListThreads returns top-level messages, newest thread first, each
// with its replies in posting order.
func (s *MessageServiceImpl) ListThreads(db *gorm.DB, principal auth.Principal, transactionID string, page, pageSize int) (*dto.MessageListResponse, error) {
	transaction, err := loadScopedTransaction(db, s.txRepo, s.partyRepo, principal, transactionID)
	if err != nil {
		return nil, err
	}

	threads, total, err := s.messageRepo.FindThreads(db, transaction.ID, page, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.MessageListResponse{
		Data:  toMessageResponses(threads),
		Total: total,
	}, nil
}

func (s *MessageServiceImpl) publish(event events.Event) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
}

// ---------------- Mapping ----------------

func toMessageResponse(message *models.Message) dto.MessageResponse {
	resp := dto.MessageResponse{
		ID:            message.ID,
		TransactionID: message.TransactionID,
		SenderID:      message.SenderID,
		Text:          message.Text,
		ReplyToID:     message.ReplyToID,
		IsSeedMessage: message.IsSeedMessage,
		CreatedAt:     message.CreatedAt,
	}
	if message.Sender != nil {
		resp.SenderName = message.Sender.Name
	}
	if len(message.Replies) > 0 {
		resp.Replies = toMessageResponses(message.Replies)
	}
	return resp
}

func toMessageResponses(messages []models.Message) []dto.MessageResponse {
	data := make([]dto.MessageResponse, 0, len(messages))
	for i := range messages {
		data = append(data, toMessageResponse(&messages[i]))
	}
	return data
}
