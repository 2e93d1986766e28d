// internal/payment/service.go

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"github.com/vettly/vettly-backend/internal/matching"
)

const eventPaymentSucceeded = "payment_intent.succeeded"

var (
	ErrNotPayable       = errors.New("match is not awaiting payment")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrGateway          = errors.New("payment provider error")
)

// Matches is the slice of the matching service payments need
type Matches interface {
	GetMatch(ctx context.Context, id uuid.UUID, viewerID string, isMatchmaker bool) (*matching.Match, error)
	RecordPayment(ctx context.Context, matchID uuid.UUID, payerID, reference string) (*matching.Match, error)
}

// Options carries the match fee and webhook secret
type Options struct {
	AmountCents   int64
	Currency      string
	WebhookSecret string
}

// IntentResponse is returned to the paying member
type IntentResponse struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
	AmountCents     int64  `json:"amount"`
	Currency        string `json:"currency"`
}

// WebhookResult says what a webhook delivery did
type WebhookResult struct {
	EventID string `json:"eventId"`
	Type    string `json:"type"`
	Handled bool   `json:"handled"`
}

// Service defines the payment service interface
type Service interface {
	CreateIntent(ctx context.Context, matchID uuid.UUID, memberID string) (*IntentResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error)
}

type service struct {
	matches Matches
	gateway Gateway
	opts    Options
	log     *zap.Logger
}

// NewService creates a new payment service
func NewService(matches Matches, gateway Gateway, opts Options, log *zap.Logger) Service {
	return &service{
		matches: matches,
		gateway: gateway,
		opts:    opts,
		log:     log.Named("payment"),
	}
}

func (s *service) CreateIntent(ctx context.Context, matchID uuid.UUID, memberID string) (*IntentResponse, error) {
	m, err := s.matches.GetMatch(ctx, matchID, memberID, false)
	if err != nil {
		return nil, err
	}
	if m.Side(memberID) == 0 {
		return nil, matching.ErrNotParticipant
	}
	if m.Stage != matching.StagePaymentRequired {
		return nil, ErrNotPayable
	}

	intent, err := s.gateway.CreateIntent(ctx, IntentRequest{
		AmountCents: s.opts.AmountCents,
		Currency:    s.opts.Currency,
		Description: "Vettly match fee",
		Metadata: map[string]string{
			"match_id":  matchID.String(),
			"member_id": memberID,
		},
		IdempotencyKey: fmt.Sprintf("match-fee-%s-%s", matchID, memberID),
	})
	if err != nil {
		intentsCreated.WithLabelValues("error").Inc()
		s.log.Error("failed to create payment intent",
			zap.String("match_id", matchID.String()),
			zap.String("member_id", memberID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	intentsCreated.WithLabelValues("ok").Inc()
	return &IntentResponse{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		AmountCents:     s.opts.AmountCents,
		Currency:        s.opts.Currency,
	}, nil
}

// HandleWebhook verifies and applies a Stripe event. Events for matches that
// no longer accept payment are acknowledged so Stripe stops retrying; other
// failures return an error so it retries.
func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.opts.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		webhooksReceived.WithLabelValues("unknown", "rejected").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	result := &WebhookResult{EventID: event.ID, Type: string(event.Type)}
	if string(event.Type) != eventPaymentSucceeded {
		webhooksReceived.WithLabelValues(result.Type, "ignored").Inc()
		return result, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		webhooksReceived.WithLabelValues(result.Type, "rejected").Inc()
		return nil, fmt.Errorf("%w: decode payment intent: %v", ErrInvalidSignature, err)
	}

	matchID, err := uuid.Parse(pi.Metadata["match_id"])
	if err != nil {
		s.log.Warn("payment intent without match metadata", zap.String("payment_intent", pi.ID))
		webhooksReceived.WithLabelValues(result.Type, "ignored").Inc()
		return result, nil
	}

	_, err = s.matches.RecordPayment(ctx, matchID, pi.Metadata["member_id"], pi.ID)
	switch {
	case err == nil:
		result.Handled = true
		webhooksReceived.WithLabelValues(result.Type, "applied").Inc()
		s.log.Info("payment recorded",
			zap.String("match_id", matchID.String()),
			zap.String("payment_intent", pi.ID))
		return result, nil
	case errors.Is(err, matching.ErrMatchNotFound),
		errors.Is(err, matching.ErrInvalidTransition),
		errors.Is(err, matching.ErrNotParticipant):
		webhooksReceived.WithLabelValues(result.Type, "ignored").Inc()
		s.log.Warn("payment for match that cannot accept it",
			zap.String("match_id", matchID.String()),
			zap.String("payment_intent", pi.ID),
			zap.Error(err))
		return result, nil
	default:
		webhooksReceived.WithLabelValues(result.Type, "failed").Inc()
		return nil, fmt.Errorf("%w: record payment: %v", ErrGateway, err)
	}
}
