// internal/notification/sms.go

package notification

import (
	"context"
	"fmt"
	"sync"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// TwilioSMSService implements SMS notifications using Twilio
type TwilioSMSService struct {
	client *twilio.RestClient
	from   string
	log    *zap.Logger
}

// NewTwilioSMSService creates a new Twilio SMS service
func NewTwilioSMSService(accountSID, authToken, from string, log *zap.Logger) (*TwilioSMSService, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("incomplete Twilio configuration")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioSMSService{client: client, from: from, log: log.Named("twilio")}, nil
}

// SendSMS sends a single SMS. The Twilio client has no context support, so
// cancellation is only checked before the request goes out.
func (s *TwilioSMSService) SendSMS(ctx context.Context, msg *SMSMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(s.from)
	params.SetBody(msg.Body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}

	if resp.Sid != nil {
		s.log.Debug("sms sent", zap.String("sid", *resp.Sid))
	}
	return nil
}

// MockSMSService records messages instead of sending them
type MockSMSService struct {
	mu   sync.Mutex
	Sent []*SMSMessage
	Err  error
	log  *zap.Logger
}

// NewMockSMSService creates a mock SMS service
func NewMockSMSService(log *zap.Logger) *MockSMSService {
	return &MockSMSService{log: log}
}

func (s *MockSMSService) SendSMS(ctx context.Context, msg *SMSMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Sent = append(s.Sent, msg)
	if s.log != nil {
		s.log.Info("💬 [mock sms]", zap.String("to", msg.To))
	}
	return nil
}
