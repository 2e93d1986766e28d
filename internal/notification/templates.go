// internal/notification/templates.go

package notification

import (
	"bytes"
	"fmt"
	"html/template"
)

// Render returns the push/email title and body for a notification. The body
// is the stored message, so channels and the in-app feed read the same text.
func Render(n *Notification) (title, body string) {
	body = n.Message
	switch n.Type {
	case TypeMatchProposal:
		title = "You have a new match 💌"
	case TypeMatchAccepted:
		title = "Your match responded"
	case TypeMatchAcceptedByBoth:
		title = "It's mutual! 🎉"
	case TypeMatchDeclined:
		title = "A match was declined"
	case TypePaymentRequired:
		title = "One step left before you meet"
	case TypePaymentCompleted:
		title = "Payment received"
	case TypeVirtualMeetingScheduled:
		title = "Your virtual meeting is scheduled 📅"
	case TypeVirtualMeetingCompleted:
		title = "Virtual meeting completed"
	case TypeMatchmakerApproved:
		title = "Your matchmaker approved this match"
	case TypeDateApproved:
		title = "Your date is approved! ❤️"
	case TypeMatchExpired:
		title = "A match expired"
	default:
		title = "Vettly"
	}
	if body == "" {
		body = title
	}
	return title, body
}

// wantsEmail lists the types that also go out by email
func wantsEmail(t Type) bool {
	return t == TypeMatchProposal || t == TypeDateApproved
}

// wantsSMS lists the types that also go out by SMS
func wantsSMS(t Type) bool {
	return t == TypeDateApproved
}

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>{{.Title}}</h2>
  <p>Hi {{.Name}},</p>
  <p>{{.Body}}</p>
  <p>Open the Vettly app to see the details.</p>
  <p style="color:#888;font-size:12px;">You are receiving this because you have an active Vettly membership.</p>
</body>
</html>`))

// RenderEmail builds the email for a notification
func RenderEmail(n *Notification, to, name string) (*EmailMessage, error) {
	title, body := Render(n)
	if name == "" {
		name = "there"
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, map[string]string{
		"Title": title,
		"Name":  name,
		"Body":  body,
	}); err != nil {
		return nil, fmt.Errorf("render email: %w", err)
	}

	return &EmailMessage{
		To:      to,
		ToName:  name,
		Subject: title,
		Text:    fmt.Sprintf("Hi %s,\n\n%s\n\nOpen the Vettly app to see the details.", name, body),
		HTML:    buf.String(),
	}, nil
}
