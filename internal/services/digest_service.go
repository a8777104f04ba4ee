package services

import (
	"errors"
	"time"

	"shortsale_backend/internal/models"
	"shortsale_backend/internal/repositories"
	"shortsale_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// WeeklyDigest is the activity summary behind one subscribed tracker
// token. Everything is scoped the same way the tracker view is:
// non-negotiator roles see only their own document requests.
type WeeklyDigest struct {
	TransactionID    string
	TransactionTitle string
	CurrentPhase     models.Phase
	Email            string
	Role             models.PartyRole
	TrackerURL       string
	Since            time.Time
	PhaseChanges     []models.PhaseHistoryEntry
	DocumentRequests []models.DocumentRequest
	Messages         []models.Message
}

// HasActivity reports whether the window contains anything worth
// sending. Quiet weeks produce no email.
func (d *WeeklyDigest) HasActivity() bool {
	return len(d.PhaseChanges) > 0 || len(d.DocumentRequests) > 0 || len(d.Messages) > 0
}

type DigestService interface {
	BuildWeeklyDigest(db *gorm.DB, token *models.AccessToken, since time.Time) (*WeeklyDigest, error)
}

type DigestServiceImpl struct {
	txRepo       repositories.TransactionRepository
	historyRepo  repositories.PhaseHistoryRepository
	requestRepo  repositories.DocumentRequestRepository
	messageRepo  repositories.MessageRepository
	tokenService AccessTokenService
}

func NewDigestService(
	txRepo repositories.TransactionRepository,
	historyRepo repositories.PhaseHistoryRepository,
	requestRepo repositories.DocumentRequestRepository,
	messageRepo repositories.MessageRepository,
	tokenService AccessTokenService,
) DigestService {
	return &DigestServiceImpl{
		txRepo:       txRepo,
		historyRepo:  historyRepo,
		requestRepo:  requestRepo,
		messageRepo:  messageRepo,
		tokenService: tokenService,
	}
}

func (s *DigestServiceImpl) BuildWeeklyDigest(db *gorm.DB, token *models.AccessToken, since time.Time) (*WeeklyDigest, error) {
	transaction, err := s.txRepo.FindByID(db, token.TransactionID)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	phaseChanges, err := s.historyRepo.FindByTransactionSince(db, transaction.ID, since)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	requests, err := s.requestRepo.FindByTransactionSince(db, transaction.ID, since)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if token.Role != models.PartyRoleNegotiator {
		assigned := requests[:0]
		for _, request := range requests {
			if request.AssignedRole == token.Role {
				assigned = append(assigned, request)
			}
		}
		requests = assigned
	}

	messages, err := s.messageRepo.FindByTransactionSince(db, transaction.ID, since)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &WeeklyDigest{
		TransactionID:    transaction.ID,
		TransactionTitle: transaction.Title,
		CurrentPhase:     transaction.CurrentPhase,
		Email:            token.Email,
		Role:             token.Role,
		TrackerURL:       s.tokenService.TrackerURL(token.Token),
		Since:            since,
		PhaseChanges:     phaseChanges,
		DocumentRequests: requests,
		Messages:         messages,
	}, nil
}
