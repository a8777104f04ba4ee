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

type PartyService interface {
	AddParty(db *gorm.DB, principal auth.Principal, transactionID string, req dto.AddPartyRequest) (*dto.AddPartyResponse, error)
	UpdateStatus(db *gorm.DB, principal auth.Principal, transactionID, partyID string, req dto.UpdatePartyStatusRequest) (*dto.PartyResponse, error)
	ListParties(db *gorm.DB, principal auth.Principal, transactionID string) (*dto.PartyListResponse, error)
}

type PartyServiceImpl struct {
	txRepo       repositories.TransactionRepository
	partyRepo    repositories.PartyRepository
	userRepo     repositories.UserRepository
	tokenService AccessTokenService
	bus          *events.Bus
}

func NewPartyService(
	txRepo repositories.TransactionRepository,
	partyRepo repositories.PartyRepository,
	userRepo repositories.UserRepository,
	tokenService AccessTokenService,
	bus *events.Bus,
) PartyService {
	return &PartyServiceImpl{
		txRepo:       txRepo,
		partyRepo:    partyRepo,
		userRepo:     userRepo,
		tokenService: tokenService,
		bus:          bus,
	}
}

// AddParty invites a participant into the transaction. Inviting an
// email that is already attached re-sends the invitation instead of
// creating a second row: the status resets to invited, the role is
// taken from the request, the tracker link stays the same.
func (s *PartyServiceImpl) AddParty(db *gorm.DB, principal auth.Principal, transactionID string, req dto.AddPartyRequest) (*dto.AddPartyResponse, error) {
	transaction, err := loadOwnedTransaction(db, s.txRepo, principal, transactionID)
	if err != nil {
		return nil, err
	}

	if err := auth.ValidateRole(req.Role); err != nil {
		return nil, apperrors.ValidationError(err.Error())
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	user, err := s.userRepo.FindByEmail(tx, req.Email)
	if err != nil {
		if !errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.InternalError(err)
		}
		// Приглашённые заходят по magic-link, пароля у них нет.
		user = &models.User{
			Email: req.Email,
			Name:  req.Name,
			Role:  models.UserRoleParticipant,
		}
		if err := s.userRepo.Create(tx, user); err != nil {
			return nil, apperrors.InternalError(err)
		}
	}

	reinvited := false
	party, err := s.partyRepo.Find(tx, transaction.ID, user.ID)
	switch {
	case err == nil:
		reinvited = true
		party.Role = req.Role
		party.Status = models.PartyStatusInvited
		if err := s.partyRepo.Update(tx, party); err != nil {
			return nil, apperrors.InternalError(err)
		}
	case errors.Is(err, repositories.ErrPartyNotFound):
		party = &models.Party{
			TransactionID: transaction.ID,
			UserID:        user.ID,
			Role:          req.Role,
			Status:        models.PartyStatusInvited,
		}
		if err := s.partyRepo.Create(tx, party); err != nil {
			return nil, apperrors.InternalError(err)
		}
	default:
		return nil, apperrors.InternalError(err)
	}

	token, err := s.tokenService.IssueOrReuse(tx, transaction.ID, req.Email, req.Role)
	if err != nil {
		return nil, err
	}

	if err := s.partyRepo.MarkWelcomeSent(tx, party.ID); err != nil {
		return nil, apperrors.InternalError(err)
	}
	party.WelcomeSent = true

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	trackerURL := s.tokenService.TrackerURL(token.Token)

	s.publish(events.PartyInvited{
		TransactionID:    transaction.ID,
		TransactionTitle: transaction.Title,
		PartyID:          party.ID,
		UserID:           user.ID,
		Email:            req.Email,
		Name:             req.Name,
		Role:             req.Role,
		TrackerURL:       trackerURL,
		Reinvite:         reinvited,
	})

	party.User = user
	return &dto.AddPartyResponse{
		Party:      toPartyResponse(party),
		TrackerURL: trackerURL,
		Reinvited:  reinvited,
	}, nil
}

// UpdateStatus lets the negotiator track where each party stands
// (contacted, responsive, unresponsive и т.д.) plus a free-form note.
func (s *PartyServiceImpl) UpdateStatus(db *gorm.DB, principal auth.Principal, transactionID, partyID string, req dto.UpdatePartyStatusRequest) (*dto.PartyResponse, error) {
	transaction, err := loadOwnedTransaction(db, s.txRepo, principal, transactionID)
	if err != nil {
		return nil, err
	}

	if !models.IsValidPartyStatus(req.Status) {
		return nil, apperrors.ErrInvalidStatusChange("unknown party status: " + string(req.Status))
	}

	party, err := s.partyRepo.FindByID(db, partyID)
	if err != nil {
		if errors.Is(err, repositories.ErrPartyNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}
	if party.TransactionID != transaction.ID {
		return nil, apperrors.ErrNotFound(repositories.ErrPartyNotFound)
	}

	party.Status = req.Status
	if req.LastAction != nil {
		party.LastAction = req.LastAction
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.partyRepo.Update(tx, party); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.txRepo.Touch(tx, transaction.ID); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.publish(events.PartyUpdated{
		TransactionID: transaction.ID,
		PartyID:       party.ID,
		Status:        party.Status,
		LastAction:    party.LastAction,
	})

	resp := toPartyResponse(party)
	return &resp, nil
}

func (s *PartyServiceImpl) ListParties(db *gorm.DB, principal auth.Principal, transactionID string) (*dto.PartyListResponse, error) {
	transaction, err := loadScopedTransaction(db, s.txRepo, s.partyRepo, principal, transactionID)
	if err != nil {
		return nil, err
	}

	parties, err := s.partyRepo.FindByTransaction(db, transaction.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.PartyListResponse{
		Data:  toPartyResponses(parties),
		Total: int64(len(parties)),
	}, nil
}

func (s *PartyServiceImpl) publish(event events.Event) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
}

// ---------------- Mapping ----------------

func toPartyResponse(party *models.Party) dto.PartyResponse {
	resp := dto.PartyResponse{
		ID:            party.ID,
		TransactionID: party.TransactionID,
		UserID:        party.UserID,
		Role:          party.Role,
		Status:        party.Status,
		LastAction:    party.LastAction,
		CreatedAt:     party.CreatedAt,
		UpdatedAt:     party.UpdatedAt,
	}
	if party.User != nil {
		resp.Name = party.User.Name
		resp.Email = party.User.Email
	}
	return resp
}

func toPartyResponses(parties []models.Party) []dto.PartyResponse {
	data := make([]dto.PartyResponse, 0, len(parties))
	for i := range parties {
		data = append(data, toPartyResponse(&parties[i]))
	}
	return data
}
