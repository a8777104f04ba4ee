package models

type Phase string
type PartyRole string
type PartyStatus string
type DocumentRequestStatus string
type UserRole string
type NotificationType string
type NotificationChannel string
type NotificationStatus string
type UploadVisibility string

const (
	PhaseIntro              Phase = "intro"
	PhaseDocumentCollection Phase = "document-collection"
	PhaseLenderSubmission   Phase = "lender-submission"
	PhaseUnderReview        Phase = "under-review"
	PhaseApproved           Phase = "approved"
	PhaseDenied             Phase = "denied"
	PhaseClosed             Phase = "closed"

	PartyRoleBuyer      PartyRole = "buyer"
	PartyRoleSeller     PartyRole = "seller"
	PartyRoleAgent      PartyRole = "agent"
	PartyRoleLenderRep  PartyRole = "lender-rep"
	PartyRoleNegotiator PartyRole = "negotiator"

	PartyStatusInvited  PartyStatus = "invited"
	PartyStatusActive   PartyStatus = "active"
	PartyStatusComplete PartyStatus = "complete"
	PartyStatusOverdue  PartyStatus = "overdue"

	DocumentRequestStatusPending  DocumentRequestStatus = "pending"
	DocumentRequestStatusComplete DocumentRequestStatus = "complete"
	DocumentRequestStatusOverdue  DocumentRequestStatus = "overdue"

	UserRoleNegotiator  UserRole = "negotiator"
	UserRoleParticipant UserRole = "participant"

	NotificationTypePartyInvited            NotificationType = "party_invited"
	NotificationTypeDocumentRequested       NotificationType = "document_requested"
	NotificationTypeDocumentRequestReminder NotificationType = "document_request_reminder"
	NotificationTypePhaseChanged            NotificationType = "phase_changed"
	NotificationTypeNewMessage              NotificationType = "new_message"
	NotificationTypeWeeklyDigest            NotificationType = "weekly_digest"

	NotificationChannelEmail NotificationChannel = "email"
	NotificationChannelPush  NotificationChannel = "push"

	NotificationStatusQueued NotificationStatus = "queued"
	NotificationStatusSent   NotificationStatus = "sent"
	NotificationStatusFailed NotificationStatus = "failed"

	UploadVisibilityPrivate UploadVisibility = "private"
	UploadVisibilityShared  UploadVisibility = "shared"
)

// PhaseOrder is the conventional progression of a short sale case.
// It drives display ordering only: a negotiator may move a transaction
// to any known phase, backward included.
var PhaseOrder = []Phase{
	PhaseIntro,
	PhaseDocumentCollection,
	PhaseLenderSubmission,
	PhaseUnderReview,
	PhaseApproved,
	PhaseDenied,
	PhaseClosed,
}

var knownPhases = func() map[Phase]struct{} {
	m := make(map[Phase]struct{}, len(PhaseOrder))
	for _, p := range PhaseOrder {
		m[p] = struct{}{}
	}
	return m
}()

// IsValidPhase reports whether p is a member of the declared phase set.
func IsValidPhase(p Phase) bool {
	_, ok := knownPhases[p]
	return ok
}

// IsValidPartyRole reports whether r is one of the known party roles.
func IsValidPartyRole(r PartyRole) bool {
	switch r {
	case PartyRoleBuyer, PartyRoleSeller, PartyRoleAgent, PartyRoleLenderRep, PartyRoleNegotiator:
		return true
	default:
		return false
	}
}

// IsValidPartyStatus reports whether s is one of the known party statuses.
func IsValidPartyStatus(s PartyStatus) bool {
	switch s {
	case PartyStatusInvited, PartyStatusActive, PartyStatusComplete, PartyStatusOverdue:
		return true
	default:
		return false
	}
}

// IsValidDocumentRequestStatus reports whether s is a known request status.
func IsValidDocumentRequestStatus(s DocumentRequestStatus) bool {
	switch s {
	case DocumentRequestStatusPending, DocumentRequestStatusComplete, DocumentRequestStatusOverdue:
		return true
	default:
		return false
	}
}
