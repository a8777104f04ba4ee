package services

import (
	"errors"
	"time"

	"shortsale_backend/internal/auth"
	"shortsale_backend/internal/events"
	"shortsale_backend/internal/models"
	"shortsale_backend/internal/repositories"
	"shortsale_backend/internal/services/dto"
	"shortsale_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type DocumentRequestService interface {
	Create(db *gorm.DB, principal auth.Principal, transactionID string, req dto.CreateDocumentRequestRequest) (*dto.DocumentRequestResponse, error)
	UpdateStatus(db *gorm.DB, principal auth.Principal, transactionID, requestID string, req dto.UpdateDocumentRequestStatusRequest) (*dto.DocumentRequestResponse, error)
	List(db *gorm.DB, principal auth.Principal, transactionID string, criteria repositories.DocumentRequestCriteria) (*dto.DocumentRequestListResponse, error)
	Delete(db *gorm.DB, principal auth.Principal, transactionID, requestID string) error
}

type DocumentRequestServiceImpl struct {
	txRepo      repositories.TransactionRepository
	partyRepo   repositories.PartyRepository
	requestRepo repositories.DocumentRequestRepository
	bus         *events.Bus
}

func NewDocumentRequestService(
	txRepo repositories.TransactionRepository,
	partyRepo repositories.PartyRepository,
	requestRepo repositories.DocumentRequestRepository,
	bus *events.Bus,
) DocumentRequestService {
	return &DocumentRequestServiceImpl{
		txRepo:      txRepo,
		partyRepo:   partyRepo,
		requestRepo: requestRepo,
		bus:         bus,
	}
}

// Create registers a document ask assigned to a role. Everyone in the
// transaction holding that role is expected to see and fulfil it.
func (s *DocumentRequestServiceImpl) Create(db *gorm.DB, principal auth.Principal, transactionID string, req dto.CreateDocumentRequestRequest) (*dto.DocumentRequestResponse, error) {
	transaction, err := loadOwnedTransaction(db, s.txRepo, principal, transactionID)
	if err != nil {
		return nil, err
	}

	if err := auth.ValidateRole(req.AssignedRole); err != nil {
		return nil, apperrors.ValidationError(err.Error())
	}

	request := &models.DocumentRequest{
		TransactionID: transaction.ID,
		DocType:       req.DocType,
		AssignedRole:  req.AssignedRole,
		Status:        models.DocumentRequestStatusPending,
		DueDate:       req.DueDate,
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.requestRepo.Create(tx, request); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.txRepo.Touch(tx, transaction.ID); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.publish(events.DocumentRequested{
		TransactionID:    transaction.ID,
		TransactionTitle: transaction.Title,
		RequestID:        request.ID,
		DocType:          request.DocType,
		AssignedRole:     request.AssignedRole,
		DueDate:          request.DueDate,
	})

	resp := toDocumentRequestResponse(request)
	return &resp, nil
}

// UpdateStatus moves a request between pending and complete.
//
// pending -> complete may be done by the negotiator or by a party whose
// role matches the assignment. complete/overdue -> pending is the
// negotiator reopening the request, optionally with a revision note
// that is re-sent to the assigned role. Overdue is never set by hand,
// the deadline worker owns it, and an overdue request has to be
// reopened before it can be completed again.
func (s *DocumentRequestServiceImpl) UpdateStatus(db *gorm.DB, principal auth.Principal, transactionID, requestID string, req dto.UpdateDocumentRequestStatusRequest) (*dto.DocumentRequestResponse, error) {
	transaction, err := loadScopedTransaction(db, s.txRepo, s.partyRepo, principal, transactionID)
	if err != nil {
		return nil, err
	}

	if !models.IsValidDocumentRequestStatus(req.Status) {
		return nil, apperrors.ErrInvalidStatusChange("unknown document request status: " + string(req.Status))
	}

	request, err := s.requestRepo.FindByID(db, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrDocumentRequestNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}
	if request.TransactionID != transaction.ID {
		return nil, apperrors.ErrNotFound(repositories.ErrDocumentRequestNotFound)
	}

	if request.Status == req.Status {
		return nil, apperrors.ErrInvalidStatusChange("request is already " + string(req.Status))
	}

	var reopened bool
	switch req.Status {
	case models.DocumentRequestStatusComplete:
		if request.Status == models.DocumentRequestStatusOverdue {
			return nil, apperrors.ErrInvalidStatusChange("an overdue request must be reopened before completion")
		}
		if !auth.CanFulfilDocumentRequest(principal.Role, request.AssignedRole) {
			return nil, apperrors.NewForbiddenError("Only the assigned role may complete this request")
		}
		now := time.Now()
		request.Status = models.DocumentRequestStatusComplete
		request.CompletedAt = &now
		request.RevisionNote = nil

	case models.DocumentRequestStatusPending:
		if !principal.IsNegotiator() {
			return nil, apperrors.ErrNegotiatorOnly
		}
		reopened = true
		request.Status = models.DocumentRequestStatusPending
		request.CompletedAt = nil
		request.RevisionNote = req.RevisionNote

	default:
		return nil, apperrors.ErrInvalidStatusChange("overdue is set automatically when the due date passes")
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.requestRepo.Update(tx, request); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := s.txRepo.Touch(tx, transaction.ID); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	if reopened {
		s.publish(events.DocumentRequestReminder{
			TransactionID:    transaction.ID,
			TransactionTitle: transaction.Title,
			RequestID:        request.ID,
			DocType:          request.DocType,
			AssignedRole:     request.AssignedRole,
			DueDate:          request.DueDate,
			RevisionNote:     request.RevisionNote,
		})
	} else {
		s.publish(events.DocumentRequestUpdated{
			TransactionID: transaction.ID,
			RequestID:     request.ID,
			DocType:       request.DocType,
			Status:        request.Status,
		})
	}

	resp := toDocumentRequestResponse(request)
	return &resp, nil
}

func (s *DocumentRequestServiceImpl) List(db *gorm.DB, principal auth.Principal, transactionID string, criteria repositories.DocumentRequestCriteria) (*dto.DocumentRequestListResponse, error) {
	transaction, err := loadScopedTransaction(db, s.txRepo, s.partyRepo, principal, transactionID)
	if err != nil {
		return nil, err
	}

	requests, total, err := s.requestRepo.FindByTransaction(db, transaction.ID, criteria)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.DocumentRequestListResponse{
		Data:  toDocumentRequestResponses(requests),
		Total: total,
	}, nil
}

func (s *DocumentRequestServiceImpl) Delete(db *gorm.DB, principal auth.Principal, transactionID, requestID string) error {
	transaction, err := loadOwnedTransaction(db, s.txRepo, principal, transactionID)
	if err != nil {
		return err
	}

	request, err := s.requestRepo.FindByID(db, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrDocumentRequestNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}
	if request.TransactionID != transaction.ID {
		return apperrors.ErrNotFound(repositories.ErrDocumentRequestNotFound)
	}

	if err := s.requestRepo.Delete(db, requestID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *DocumentRequestServiceImpl) publish(event events.Event) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
}

// ---------------- Mapping ----------------

func toDocumentRequestResponse(request *models.DocumentRequest) dto.DocumentRequestResponse {
	resp := dto.DocumentRequestResponse{
		ID:            request.ID,
		TransactionID: request.TransactionID,
		DocType:       request.DocType,
		AssignedRole:  request.AssignedRole,
		Status:        request.Status,
		DueDate:       request.DueDate,
		RevisionNote:  request.RevisionNote,
		CompletedAt:   request.CompletedAt,
		CreatedAt:     request.CreatedAt,
		UpdatedAt:     request.UpdatedAt,
	}
	if len(request.Uploads) > 0 {
		resp.Uploads = toUploadResponses(request.Uploads)
	}
	return resp
}

func toDocumentRequestResponses(requests []models.DocumentRequest) []dto.DocumentRequestResponse {
	data := make([]dto.DocumentRequestResponse, 0, len(requests))
	for i := range requests {
		data = append(data, toDocumentRequestResponse(&requests[i]))
	}
	return data
}
