// internal/notification/channels.go

package notification

import (
	"context"
)

// Channel names an outbound delivery path
type Channel string

const (
	ChannelHub   Channel = "hub"
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// PushMessage is a single-device push
type PushMessage struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// EmailMessage is a rendered email
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// SMSMessage is a plain text SMS
type SMSMessage struct {
	To   string
	Body string
}

// PushService sends device push notifications
type PushService interface {
	SendPush(ctx context.Context, msg *PushMessage) error
}

// EmailService sends transactional email
type EmailService interface {
	SendEmail(ctx context.Context, msg *EmailMessage) error
}

// SMSService sends text messages
type SMSService interface {
	SendSMS(ctx context.Context, msg *SMSMessage) error
}
