package notifications

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortsale_backend/internal/events"
	"shortsale_backend/internal/models"
	"shortsale_backend/internal/services"
)

func TestComposeInvite(t *testing.T) {
	subject, body, err := ComposeInvite(events.PartyInvited{
		TransactionTitle: "123 Main St",
		Name:             "Jane Seller",
		Role:             models.PartyRoleSeller,
		TrackerURL:       "https://tracker.example.com/t?token=abc",
	})
	require.NoError(t, err)

	assert.Equal(t, "You were added to 123 Main St", subject)
	assert.Contains(t, body, "Jane Seller")
	assert.Contains(t, body, "seller")
	assert.Contains(t, body, "https://tracker.example.com/t?token=abc")
	// Ссылка отписки от дайджеста есть в каждом письме с трекером
	assert.Contains(t, body, "subscribed=false")
}

func TestComposeInvite_Reinvite(t *testing.T) {
	subject, body, err := ComposeInvite(events.PartyInvited{
		TransactionTitle: "123 Main St",
		Name:             "Jane Seller",
		Role:             models.PartyRoleSeller,
		TrackerURL:       "https://tracker.example.com/t?token=abc",
		Reinvite:         true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Your updated invitation: 123 Main St", subject)
	assert.Contains(t, body, "re-invited")
}

func TestComposePhaseChange(t *testing.T) {
	subject, body, err := ComposePhaseChange(events.PhaseChanged{
		TransactionTitle: "123 Main St",
		Phase:            models.PhaseUnderReview,
	}, "https://tracker.example.com/t?token=abc")
	require.NoError(t, err)

	assert.Equal(t, "123 Main St moved to under-review", subject)
	assert.Contains(t, body, "under-review")
}

func TestComposeDocumentRequest(t *testing.T) {
	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	subject, body, err := ComposeDocumentRequest(events.DocumentRequested{
		TransactionTitle: "123 Main St",
		DocType:          "Hardship Letter",
		AssignedRole:     models.PartyRoleSeller,
		DueDate:          &due,
	}, "https://tracker.example.com/t?token=abc")
	require.NoError(t, err)

	assert.Equal(t, "Document needed: Hardship Letter", subject)
	assert.Contains(t, body, "Hardship Letter")
	assert.Contains(t, body, "seller")
	assert.Contains(t, body, "September 15, 2026")
}

func TestComposeDocumentReminder(t *testing.T) {
	note := "Please re-upload page 2, the scan is unreadable"

	subject, body, err := ComposeDocumentReminder(events.DocumentRequestReminder{
		TransactionTitle: "123 Main St",
		DocType:          "Bank Statement",
		RevisionNote:     &note,
	}, "https://tracker.example.com/t?token=abc")
	require.NoError(t, err)

	assert.Equal(t, "Action needed: Bank Statement", subject)
	assert.Contains(t, body, "reopened")
	assert.Contains(t, body, "page 2")
}

func TestComposeNewMessage(t *testing.T) {
	subject, body, err := ComposeNewMessage(events.NewMessage{
		TransactionTitle: "123 Main St",
		SenderName:       "Mark Negotiator",
		Text:             "The lender asked for <updated> statements",
	}, "https://tracker.example.com/t?token=abc")
	require.NoError(t, err)

	assert.Equal(t, "New message in 123 Main St", subject)
	assert.Contains(t, body, "Mark Negotiator")
	// html/template экранирует пользовательский текст
	assert.Contains(t, body, "&lt;updated&gt;")
	assert.NotContains(t, body, "<updated>")
}

func TestComposeWeeklyDigest(t *testing.T) {
	due := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	digest := &services.WeeklyDigest{
		TransactionTitle: "123 Main St",
		CurrentPhase:     models.PhaseDocumentCollection,
		TrackerURL:       "https://tracker.example.com/t?token=abc",
		PhaseChanges: []models.PhaseHistoryEntry{
			{Phase: models.PhaseDocumentCollection, CreatedAt: time.Date(2026, 8, 18, 12, 0, 0, 0, time.UTC)},
		},
		DocumentRequests: []models.DocumentRequest{
			{DocType: "Hardship Letter", Status: models.DocumentRequestStatusPending, DueDate: &due},
		},
		Messages: []models.Message{
			{Text: "Welcome aboard", Sender: &models.User{Name: "Mark Negotiator"}},
			{Text: "Case opened"}, // системное сообщение без отправителя
		},
	}

	subject, body, err := ComposeWeeklyDigest(digest)
	require.NoError(t, err)

	assert.Equal(t, "Weekly update: 123 Main St", subject)
	assert.Contains(t, body, "document-collection")
	assert.Contains(t, body, "August 18")
	assert.Contains(t, body, "Hardship Letter")
	assert.Contains(t, body, "September 1, 2026")
	assert.Contains(t, body, "Mark Negotiator")
	assert.Contains(t, body, "System")
}

func TestWeeklyDigestHasActivity(t *testing.T) {
	empty := &services.WeeklyDigest{}
	assert.False(t, empty.HasActivity())

	withMessage := &services.WeeklyDigest{Messages: []models.Message{{Text: "hi"}}}
	assert.True(t, withMessage.HasActivity())
}

func TestPushText(t *testing.T) {
	title, body := PushText(models.NotificationTypePhaseChanged, "123 Main St moved to approved")
	assert.Equal(t, "Phase update", title)
	assert.Equal(t, "123 Main St moved to approved", body)

	title, _ = PushText(models.NotificationTypeDocumentRequestReminder, "Action needed: Bank Statement")
	assert.Equal(t, "Document request", title)

	// Неизвестный тип получает нейтральный заголовок
	title, _ = PushText(models.NotificationType("something_else"), "subject")
	assert.Equal(t, "Short sale tracker", title)
}
