package services

import (
	"errors"
	"time"

	"shortsale_backend/internal/auth"
	"shortsale_backend/internal/models"
	"shortsale_backend/internal/repositories"
	"shortsale_backend/internal/services/dto"
	"shortsale_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type AccessTokenService interface {
	IssueOrReuse(db *gorm.DB, transactionID, email string, role models.PartyRole) (*models.AccessToken, error)
	Validate(db *gorm.DB, token string) (*models.AccessToken, error)
	SetSubscribed(db *gorm.DB, token string, subscribed bool) (*dto.SubscriptionResponse, error)
	TrackerURL(token string) string
	TrackerView(db *gorm.DB, accessToken *models.AccessToken) (*dto.TrackerViewResponse, error)
	ListLinks(db *gorm.DB, principal auth.Principal, transactionID string) (*dto.TrackerLinkListResponse, error)
}

type AccessTokenServiceImpl struct {
	tokenRepo   repositories.AccessTokenRepository
	txRepo      repositories.TransactionRepository
	partyRepo   repositories.PartyRepository
	requestRepo repositories.DocumentRequestRepository
	messageRepo repositories.MessageRepository
	userRepo    repositories.UserRepository
}

func NewAccessTokenService(
	tokenRepo repositories.AccessTokenRepository,
	txRepo repositories.TransactionRepository,
	partyRepo repositories.PartyRepository,
	requestRepo repositories.DocumentRequestRepository,
	messageRepo repositories.MessageRepository,
	userRepo repositories.UserRepository,
) AccessTokenService {
	return &AccessTokenServiceImpl{
		tokenRepo:   tokenRepo,
		txRepo:      txRepo,
		partyRepo:   partyRepo,
		requestRepo: requestRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
	}
}

// IssueOrReuse returns the token owned by (transaction, email). A party
// that already has one keeps the same link across re-invites; only the
// role is refreshed when it changed.
func (s *AccessTokenServiceImpl) IssueOrReuse(db *gorm.DB, transactionID, email string, role models.PartyRole) (*models.AccessToken, error) {
	existing, err := s.tokenRepo.FindByTransactionAndEmail(db, transactionID, email)
	if err == nil {
		if existing.Role != role {
			if err := s.tokenRepo.UpdateRole(db, existing.ID, role); err != nil {
				return nil, apperrors.InternalError(err)
			}
			existing.Role = role
		}
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrAccessTokenNotFound) {
		return nil, apperrors.InternalError(err)
	}

	value, err := auth.RandomToken()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	token := &models.AccessToken{
		TransactionID: transactionID,
		Email:         email,
		Role:          role,
		Token:         value,
		ExpiresAt:     nil, // permanent by default
		Subscribed:    true,
	}
	if err := s.tokenRepo.Create(db, token); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return token, nil
}

// Validate checks the stored state on every request, nothing is cached
// between requests. Invalid and expired are indistinguishable for the
// caller on purpose.
func (s *AccessTokenServiceImpl) Validate(db *gorm.DB, token string) (*models.AccessToken, error) {
	if token == "" {
		return nil, apperrors.ErrTrackerTokenInvalid
	}

	stored, err := s.tokenRepo.FindByToken(db, token)
	if err != nil {
		if errors.Is(err, repositories.ErrAccessTokenNotFound) {
			return nil, apperrors.ErrTrackerTokenInvalid
		}
		return nil, apperrors.InternalError(err)
	}

	if !stored.Valid(time.Now()) {
		return nil, apperrors.ErrTrackerTokenInvalid
	}

	return stored, nil
}

// SetSubscribed flips digest delivery for the token. Expiry is not
// checked here: unsubscribe links in old emails must keep working.
func (s *AccessTokenServiceImpl) SetSubscribed(db *gorm.DB, token string, subscribed bool) (*dto.SubscriptionResponse, error) {
	stored, err := s.tokenRepo.FindByToken(db, token)
	if err != nil {
		if errors.Is(err, repositories.ErrAccessTokenNotFound) {
			return nil, apperrors.ErrTrackerTokenInvalid
		}
		return nil, apperrors.InternalError(err)
	}

	if err := s.tokenRepo.UpdateSubscribed(db, stored.ID, subscribed); err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.SubscriptionResponse{Subscribed: subscribed}, nil
}

func (s *AccessTokenServiceImpl) TrackerURL(token string) string {
	return auth.TrackerURL(token)
}

// TrackerView assembles everything the party sees behind their link.
// Non-negotiator roles get only the document requests assigned to them.
func (s *AccessTokenServiceImpl) TrackerView(db *gorm.DB, accessToken *models.AccessToken) (*dto.TrackerViewResponse, error) {
	transaction, err := s.txRepo.FindByID(db, accessToken.TransactionID)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	parties, err := s.partyRepo.FindByTransaction(db, transaction.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	criteria := repositories.DocumentRequestCriteria{Page: 1, PageSize: 100}
	if accessToken.Role != models.PartyRoleNegotiator {
		criteria.Role = &accessToken.Role
	}
	requests, _, err := s.requestRepo.FindByTransaction(db, transaction.ID, criteria)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	threads, _, err := s.messageRepo.FindThreads(db, transaction.ID, 1, 20)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	view := &dto.TrackerViewResponse{
		Transaction:      toTransactionResponse(transaction),
		Role:             accessToken.Role,
		Email:            accessToken.Email,
		Subscribed:       accessToken.Subscribed,
		Phases:           buildPhaseSteps(transaction.CurrentPhase),
		Parties:          toPartyResponses(parties),
		DocumentRequests: toDocumentRequestResponses(requests),
		Messages:         toMessageResponses(threads),
	}

	if user, err := s.userRepo.FindByEmail(db, accessToken.Email); err == nil {
		view.Name = user.Name
	}

	return view, nil
}

// ListLinks shows the negotiator every issued link for the case.
func (s *AccessTokenServiceImpl) ListLinks(db *gorm.DB, principal auth.Principal, transactionID string) (*dto.TrackerLinkListResponse, error) {
	if _, err := loadOwnedTransaction(db, s.txRepo, principal, transactionID); err != nil {
		return nil, err
	}

	tokens, err := s.tokenRepo.FindByTransaction(db, transactionID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	data := make([]dto.TrackerLinkResponse, 0, len(tokens))
	for _, token := range tokens {
		data = append(data, dto.TrackerLinkResponse{
			ID:         token.ID,
			Email:      token.Email,
			Role:       token.Role,
			URL:        s.TrackerURL(token.Token),
			ExpiresAt:  token.ExpiresAt,
			Subscribed: token.Subscribed,
			CreatedAt:  token.CreatedAt,
		})
	}

	return &dto.TrackerLinkListResponse{Data: data, Total: int64(len(data))}, nil
}
