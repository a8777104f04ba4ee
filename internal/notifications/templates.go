package notifications

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"shortsale_backend/internal/events"
	"shortsale_backend/internal/models"
	"shortsale_backend/internal/services"
)

// Письма собираются из встроенных шаблонов: на этих объёмах отдельные
// .html файлы и менеджер шаблонов не окупаются.

var emailTemplates = template.Must(template.New("notifications").Parse(`
{{define "layout_top"}}<div style="font-family:Arial,sans-serif;max-width:560px;margin:0 auto;color:#222">
<h2 style="margin-bottom:4px">{{.Title}}</h2>
<p style="color:#666;margin-top:0">{{.TransactionTitle}}</p>{{end}}

{{define "layout_bottom"}}{{if .TrackerURL}}<p style="margin-top:24px">
<a href="{{.TrackerURL}}" style="background:#2d6cdf;color:#fff;padding:10px 18px;text-decoration:none;border-radius:4px">Open your tracker</a>
</p>{{end}}
<p style="color:#999;font-size:12px;margin-top:32px">You are receiving this because you are a party to this short sale transaction.{{if .TrackerURL}}<br>
<a href="{{.TrackerURL}}&subscribed=false" style="color:#999">Unsubscribe from the weekly digest</a>{{end}}</p>
</div>{{end}}

{{define "party_invited"}}{{template "layout_top" .}}
<p>Hi {{.Name}},</p>
{{if .Reinvite}}<p>{{.NegotiatorNote}} You have been re-invited to the transaction as <b>{{.Role}}</b>. Your tracker link below is unchanged.</p>
{{else}}<p>You have been added to the transaction as <b>{{.Role}}</b>. Use your personal link below to follow progress, see document requests and leave replies. No account or password is needed.</p>{{end}}
{{template "layout_bottom" .}}{{end}}

{{define "phase_changed"}}{{template "layout_top" .}}
<p>The case moved to a new phase: <b>{{.Phase}}</b>.</p>
{{template "layout_bottom" .}}{{end}}

{{define "document_requested"}}{{template "layout_top" .}}
<p>A new document is requested from the <b>{{.Role}}</b>: <b>{{.DocType}}</b>.</p>
{{if .DueDate}}<p>Please provide it by <b>{{.DueDate}}</b>.</p>{{end}}
{{template "layout_bottom" .}}{{end}}

{{define "document_request_reminder"}}{{template "layout_top" .}}
<p>The request for <b>{{.DocType}}</b> was reopened and needs your attention.</p>
{{if .RevisionNote}}<p style="border-left:3px solid #2d6cdf;padding-left:12px;color:#444">{{.RevisionNote}}</p>{{end}}
{{if .DueDate}}<p>Please provide it by <b>{{.DueDate}}</b>.</p>{{end}}
{{template "layout_bottom" .}}{{end}}

{{define "new_message"}}{{template "layout_top" .}}
<p><b>{{.SenderName}}</b> wrote:</p>
<p style="border-left:3px solid #ddd;padding-left:12px;color:#444">{{.Text}}</p>
{{template "layout_bottom" .}}{{end}}

{{define "weekly_digest"}}{{template "layout_top" .}}
<p>Here is what happened in the last week. The case is currently in the <b>{{.Phase}}</b> phase.</p>
{{if .PhaseChanges}}<h3 style="margin-bottom:4px">Phase changes</h3><ul>
{{range .PhaseChanges}}<li>moved to <b>{{.Phase}}</b> on {{.When}}</li>{{end}}</ul>{{end}}
{{if .DocumentRequests}}<h3 style="margin-bottom:4px">Document requests</h3><ul>
{{range .DocumentRequests}}<li><b>{{.DocType}}</b> - {{.Status}}{{if .DueDate}}, due {{.DueDate}}{{end}}</li>{{end}}</ul>{{end}}
{{if .Messages}}<h3 style="margin-bottom:4px">Messages</h3><ul>
{{range .Messages}}<li><b>{{.Sender}}</b>: {{.Text}}</li>{{end}}</ul>{{end}}
{{template "layout_bottom" .}}{{end}}
`))

func render(name string, data any) (string, error) {
	var buf strings.Builder
	if err := emailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("January 2, 2006")
}

// ---------------- Composition ----------------

// ComposeInvite builds the invitation (or re-invitation) email.
func ComposeInvite(event events.PartyInvited) (subject, body string, err error) {
	if event.Reinvite {
		subject = fmt.Sprintf("Your updated invitation: %s", event.TransactionTitle)
	} else {
		subject = fmt.Sprintf("You were added to %s", event.TransactionTitle)
	}
	body, err = render("party_invited", map[string]any{
		"Title":            "Short sale tracker invitation",
		"TransactionTitle": event.TransactionTitle,
		"Name":             event.Name,
		"Role":             string(event.Role),
		"Reinvite":         event.Reinvite,
		"NegotiatorNote":   "The negotiator refreshed your invitation.",
		"TrackerURL":       event.TrackerURL,
	})
	return subject, body, err
}

func ComposePhaseChange(event events.PhaseChanged, trackerURL string) (subject, body string, err error) {
	subject = fmt.Sprintf("%s moved to %s", event.TransactionTitle, event.Phase)
	body, err = render("phase_changed", map[string]any{
		"Title":            "Phase update",
		"TransactionTitle": event.TransactionTitle,
		"Phase":            string(event.Phase),
		"TrackerURL":       trackerURL,
	})
	return subject, body, err
}

func ComposeDocumentRequest(event events.DocumentRequested, trackerURL string) (subject, body string, err error) {
	subject = fmt.Sprintf("Document needed: %s", event.DocType)
	body, err = render("document_requested", map[string]any{
		"Title":            "Document request",
		"TransactionTitle": event.TransactionTitle,
		"Role":             string(event.AssignedRole),
		"DocType":          event.DocType,
		"DueDate":          formatDate(event.DueDate),
		"TrackerURL":       trackerURL,
	})
	return subject, body, err
}

func ComposeDocumentReminder(event events.DocumentRequestReminder, trackerURL string) (subject, body string, err error) {
	subject = fmt.Sprintf("Action needed: %s", event.DocType)
	note := ""
	if event.RevisionNote != nil {
		note = *event.RevisionNote
	}
	body, err = render("document_request_reminder", map[string]any{
		"Title":            "Document request reopened",
		"TransactionTitle": event.TransactionTitle,
		"DocType":          event.DocType,
		"RevisionNote":     note,
		"DueDate":          formatDate(event.DueDate),
		"TrackerURL":       trackerURL,
	})
	return subject, body, err
}

func ComposeNewMessage(event events.NewMessage, trackerURL string) (subject, body string, err error) {
	subject = fmt.Sprintf("New message in %s", event.TransactionTitle)
	body, err = render("new_message", map[string]any{
		"Title":            "New message",
		"TransactionTitle": event.TransactionTitle,
		"SenderName":       event.SenderName,
		"Text":             event.Text,
		"TrackerURL":       trackerURL,
	})
	return subject, body, err
}

// ComposeWeeklyDigest builds the Friday summary for one subscriber.
func ComposeWeeklyDigest(digest *services.WeeklyDigest) (subject, body string, err error) {
	subject = fmt.Sprintf("Weekly update: %s", digest.TransactionTitle)

	phaseChanges := make([]map[string]string, 0, len(digest.PhaseChanges))
	for _, entry := range digest.PhaseChanges {
		phaseChanges = append(phaseChanges, map[string]string{
			"Phase": string(entry.Phase),
			"When":  entry.CreatedAt.Format("January 2"),
		})
	}

	requests := make([]map[string]string, 0, len(digest.DocumentRequests))
	for _, request := range digest.DocumentRequests {
		requests = append(requests, map[string]string{
			"DocType": request.DocType,
			"Status":  string(request.Status),
			"DueDate": formatDate(request.DueDate),
		})
	}

	messages := make([]map[string]string, 0, len(digest.Messages))
	for _, message := range digest.Messages {
		sender := "System"
		if message.Sender != nil {
			sender = message.Sender.Name
		}
		messages = append(messages, map[string]string{
			"Sender": sender,
			"Text":   message.Text,
		})
	}

	body, err = render("weekly_digest", map[string]any{
		"Title":            "Your weekly summary",
		"TransactionTitle": digest.TransactionTitle,
		"Phase":            string(digest.CurrentPhase),
		"PhaseChanges":     phaseChanges,
		"DocumentRequests": requests,
		"Messages":         messages,
		"TrackerURL":       digest.TrackerURL,
	})
	return subject, body, err
}

// PushText returns the short push-notification body for an event type.
func PushText(notificationType models.NotificationType, subject string) (title, body string) {
	switch notificationType {
	case models.NotificationTypePartyInvited:
		return "Short sale tracker", subject
	case models.NotificationTypePhaseChanged:
		return "Phase update", subject
	case models.NotificationTypeDocumentRequested, models.NotificationTypeDocumentRequestReminder:
		return "Document request", subject
	case models.NotificationTypeNewMessage:
		return "New message", subject
	default:
		return "Short sale tracker", subject
	}
}
