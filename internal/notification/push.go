// internal/notification/push.go

package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// FCMPushService implements push notifications using Firebase Cloud Messaging
type FCMPushService struct {
	client *messaging.Client
	log    *zap.Logger
}

// NewFCMPushService creates a new FCM push service from a credentials file
// path or an inline credentials JSON document
func NewFCMPushService(ctx context.Context, credentialsPath, credentialsJSON string, log *zap.Logger) (*FCMPushService, error) {
	var opt option.ClientOption
	switch {
	case credentialsPath != "":
		opt = option.WithCredentialsFile(credentialsPath)
	case credentialsJSON != "":
		opt = option.WithCredentialsJSON([]byte(credentialsJSON))
	default:
		return nil, errors.New("FIREBASE_CREDENTIALS_PATH or FIREBASE_CREDENTIALS_JSON must be set")
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return &FCMPushService{client: client, log: log.Named("fcm")}, nil
}

// SendPush sends a push notification to one device
func (s *FCMPushService) SendPush(ctx context.Context, msg *PushMessage) error {
	if msg.Token == "" {
		return errors.New("no device token")
	}

	message := &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	id, err := s.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}

	s.log.Debug("push sent", zap.String("message_id", id))
	return nil
}

// MockPushService records pushes instead of sending them
type MockPushService struct {
	mu   sync.Mutex
	Sent []*PushMessage
	Err  error
	log  *zap.Logger
}

// NewMockPushService creates a mock push service
func NewMockPushService(log *zap.Logger) *MockPushService {
	return &MockPushService{log: log}
}

func (s *MockPushService) SendPush(ctx context.Context, msg *PushMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Sent = append(s.Sent, msg)
	if s.log != nil {
		s.log.Info("📱 [mock push]", zap.String("title", msg.Title), zap.String("body", msg.Body))
	}
	return nil
}
