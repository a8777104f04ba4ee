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

// seedWelcomeText is the system message every new case starts with,
// so a tracker link never opens onto an empty board.
const seedWelcomeText = "Welcome to the tracker for this short sale. " +
	"Phase changes, document requests and messages for the case will show up here."

type TransactionService interface {
	Create(db *gorm.DB, principal auth.Principal, req *dto.CreateTransactionRequest) (*dto.TransactionResponse, error)
	Get(db *gorm.DB, principal auth.Principal, transactionID string) (*dto.TransactionDetailResponse, error)
	List(db *gorm.DB, principal auth.Principal, criteria repositories.TransactionCriteria) (*dto.TransactionListResponse, error)
	Update(db *gorm.DB, principal auth.Principal, transactionID string, req *dto.UpdateTransactionRequest) (*dto.TransactionResponse, error)
	Delete(db *gorm.DB, principal auth.Principal, transactionID string) error
	ChangePhase(db *gorm.DB, principal auth.Principal, transactionID string, phase models.Phase) (*dto.TransactionResponse, error)
	GetPhaseHistory(db *gorm.DB, principal auth.Principal, transactionID string) (*dto.PhaseHistoryResponse, error)
}

type TransactionServiceImpl struct {
	txRepo      repositories.TransactionRepository
	partyRepo   repositories.PartyRepository
	requestRepo repositories.DocumentRequestRepository
	historyRepo repositories.PhaseHistoryRepository
	messageRepo repositories.MessageRepository
	bus         *events.Bus
}

func NewTransactionService(
	txRepo repositories.TransactionRepository,
	partyRepo repositories.PartyRepository,
	requestRepo repositories.DocumentRequestRepository,
	historyRepo repositories.PhaseHistoryRepository,
	messageRepo repositories.MessageRepository,
	bus *events.Bus,
) TransactionService {
	return &TransactionServiceImpl{
		txRepo:      txRepo,
		partyRepo:   partyRepo,
		requestRepo: requestRepo,
		historyRepo: historyRepo,
		messageRepo: messageRepo,
		bus:         bus,
	}
}

// Create opens a new case in the intro phase. The creation itself is not
// a transition, so no phase history row is written here.
func (s *TransactionServiceImpl) Create(db *gorm.DB, principal auth.Principal, req *dto.CreateTransactionRequest) (*dto.TransactionResponse, error) {
	if principal.Source != auth.PrincipalSourceSession || !principal.IsNegotiator() {
		return nil, apperrors.ErrNegotiatorOnly
	}

	transaction := &models.Transaction{
		Title:           req.Title,
		PropertyAddress: req.PropertyAddress,
		CurrentPhase:    models.PhaseIntro,
		NegotiatorID:    principal.UserID,
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.txRepo.Create(tx, transaction); err != nil {
		return nil, apperrors.InternalError(err)
	}

	seed := &models.Message{
		TransactionID: transaction.ID,
		SenderID:      nil, // system
		Text:          seedWelcomeText,
		IsSeedMessage: true,
	}
	if err := s.messageRepo.Create(tx, seed); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	response := toTransactionResponse(transaction)
	return &response, nil
}

func (s *TransactionServiceImpl) Get(db *gorm.DB, principal auth.Principal, transactionID string) (*dto.TransactionDetailResponse, error) {
	transaction, err := loadScopedTransaction(db, s.txRepo, s.partyRepo, principal, transactionID)
	if err != nil {
		return nil, err
	}

	parties, err := s.partyRepo.FindByTransaction(db, transactionID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	requests, _, err := s.requestRepo.FindByTransaction(db, transactionID, repositories.DocumentRequestCriteria{Page: 1, PageSize: 100})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	detail := &dto.TransactionDetailResponse{
		TransactionResponse: toTransactionResponse(transaction),
		Phases:              buildPhaseSteps(transaction.CurrentPhase),
		Parties:             toPartyResponses(parties),
		DocumentRequests:    toDocumentRequestResponses(requests),
	}
	return detail, nil
}

func (s *TransactionServiceImpl) List(db *gorm.DB, principal auth.Principal, criteria repositories.TransactionCriteria) (*dto.TransactionListResponse, error) {
	if principal.Source != auth.PrincipalSourceSession || !principal.IsNegotiator() {
		return nil, apperrors.ErrNegotiatorOnly
	}

	transactions, total, err := s.txRepo.FindByNegotiator(db, principal.UserID, criteria)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	data := make([]dto.TransactionResponse, 0, len(transactions))
	for i := range transactions {
		data = append(data, toTransactionResponse(&transactions[i]))
	}

	return &dto.TransactionListResponse{Data: data, Total: total}, nil
}

func (s *TransactionServiceImpl) Update(db *gorm.DB, principal auth.Principal, transactionID string, req *dto.UpdateTransactionRequest) (*dto.TransactionResponse, error) {
	transaction, err := loadOwnedTransaction(db, s.txRepo, principal, transactionID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		transaction.Title = *req.Title
	}
	if req.PropertyAddress != nil {
		transaction.PropertyAddress = *req.PropertyAddress
	}

	if err := s.txRepo.Update(db, transaction); err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	response := toTransactionResponse(transaction)
	return &response, nil
}

// Delete removes the case; parties, requests, messages, history, uploads
// and tokens go with it through the FK cascade.
func (s *TransactionServiceImpl) Delete(db *gorm.DB, principal auth.Principal, transactionID string) error {
	if _, err := loadOwnedTransaction(db, s.txRepo, principal, transactionID); err != nil {
		return err
	}

	if err := s.txRepo.Delete(db, transactionID); err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}
	return nil
}

// ChangePhase moves the case to any declared phase, backward moves
// included. The phase update and its history row commit together.
func (s *TransactionServiceImpl) ChangePhase(db *gorm.DB, principal auth.Principal, transactionID string, phase models.Phase) (*dto.TransactionResponse, error) {
	if !auth.CanChangePhase(principal.Role) {
		return nil, apperrors.ErrNegotiatorOnly
	}

	if !models.IsValidPhase(phase) {
		return nil, apperrors.ErrInvalidPhaseKey(string(phase))
	}

	transaction, err := loadOwnedTransaction(db, s.txRepo, principal, transactionID)
	if err != nil {
		return nil, err
	}

	actorID := principal.UserID
	if actorID == "" {
		actorID = transaction.NegotiatorID
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.txRepo.UpdatePhase(tx, transactionID, phase); err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	entry := &models.PhaseHistoryEntry{
		TransactionID: transactionID,
		Phase:         phase,
		SetByID:       actorID,
	}
	if err := s.historyRepo.Create(tx, entry); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	transaction.CurrentPhase = phase
	s.publish(events.PhaseChanged{
		TransactionID:    transactionID,
		TransactionTitle: transaction.Title,
		Phase:            phase,
		ActorID:          actorID,
	})

	response := toTransactionResponse(transaction)
	return &response, nil
}

func (s *TransactionServiceImpl) GetPhaseHistory(db *gorm.DB, principal auth.Principal, transactionID string) (*dto.PhaseHistoryResponse, error) {
	if _, err := loadScopedTransaction(db, s.txRepo, s.partyRepo, principal, transactionID); err != nil {
		return nil, err
	}

	entries, err := s.historyRepo.FindByTransaction(db, transactionID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	data := make([]dto.PhaseHistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		item := dto.PhaseHistoryEntryResponse{
			ID:        entry.ID,
			Phase:     entry.Phase,
			SetByID:   entry.SetByID,
			CreatedAt: entry.CreatedAt,
		}
		if entry.SetBy != nil {
			item.SetByName = entry.SetBy.Name
		}
		data = append(data, item)
	}

	return &dto.PhaseHistoryResponse{Data: data, Total: int64(len(data))}, nil
}

func (s *TransactionServiceImpl) publish(event events.Event) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
}

// ---------------- Mapping ----------------

func toTransactionResponse(t *models.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:              t.ID,
		Title:           t.Title,
		PropertyAddress: t.PropertyAddress,
		CurrentPhase:    t.CurrentPhase,
		NegotiatorID:    t.NegotiatorID,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func buildPhaseSteps(current models.Phase) []dto.PhaseStep {
	steps := make([]dto.PhaseStep, 0, len(models.PhaseOrder))
	for _, phase := range models.PhaseOrder {
		steps = append(steps, dto.PhaseStep{
			Key:     phase,
			Current: phase == current,
		})
	}
	return steps
}
