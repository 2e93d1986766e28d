package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"github.com/vettly/vettly-backend/internal/auth"
	"github.com/vettly/vettly-backend/internal/common/utils"
	"github.com/vettly/vettly-backend/internal/matching"
)

const webhookSecret = "whsec_test"

type fakeMatches struct {
	match    *matching.Match
	recorded []string
	err      error
}

func (f *fakeMatches) GetMatch(ctx context.Context, id uuid.UUID, viewerID string, isMatchmaker bool) (*matching.Match, error) {
	if f.match == nil || f.match.ID != id {
		return nil, matching.ErrMatchNotFound
	}
	if !isMatchmaker && f.match.Side(viewerID) == 0 {
		return nil, matching.ErrForbidden
	}
	return f.match, nil
}

func (f *fakeMatches) RecordPayment(ctx context.Context, matchID uuid.UUID, payerID, reference string) (*matching.Match, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.recorded = append(f.recorded, fmt.Sprintf("%s/%s/%s", matchID, payerID, reference))
	return f.match, nil
}

type fakeGateway struct {
	requests []IntentRequest
	err      error
}

func (g *fakeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.requests = append(g.requests, req)
	return &Intent{ID: "pi_123", ClientSecret: "pi_123_secret", Status: "requires_payment_method"}, nil
}

func newTestService(stage matching.Stage) (*service, *fakeMatches, *fakeGateway) {
	matches := &fakeMatches{match: &matching.Match{
		ID:        uuid.New(),
		Member1ID: "adam",
		Member2ID: "eve",
		Stage:     stage,
	}}
	gateway := &fakeGateway{}
	svc := NewService(matches, gateway, Options{AmountCents: 4900, Currency: "usd", WebhookSecret: webhookSecret}, zap.NewNop())
	return svc.(*service), matches, gateway
}

func signed(t *testing.T, payload string) (string, string) {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(payload),
		Secret:  webhookSecret,
	})
	return string(sp.Payload), sp.Header
}

func succeededEvent(matchID, memberID string) string {
	return fmt.Sprintf(`{
		"id": "evt_1",
		"object": "event",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_123", "object": "payment_intent", "metadata": {"match_id": %q, "member_id": %q}}}
	}`, matchID, memberID)
}

func TestCreateIntent(t *testing.T) {
	svc, matches, gateway := newTestService(matching.StagePaymentRequired)

	resp, err := svc.CreateIntent(context.Background(), matches.match.ID, "eve")
	require.NoError(t, err)
	assert.Equal(t, "pi_123_secret", resp.ClientSecret)
	assert.Equal(t, int64(4900), resp.AmountCents)

	require.Len(t, gateway.requests, 1)
	req := gateway.requests[0]
	assert.Equal(t, matches.match.ID.String(), req.Metadata["match_id"])
	assert.Equal(t, "eve", req.Metadata["member_id"])
	assert.Equal(t, "usd", req.Currency)
	assert.NotEmpty(t, req.IdempotencyKey)
}

func TestCreateIntentRejects(t *testing.T) {
	svc, matches, _ := newTestService(matching.StagePending)

	_, err := svc.CreateIntent(context.Background(), matches.match.ID, "eve")
	assert.ErrorIs(t, err, ErrNotPayable)

	_, err = svc.CreateIntent(context.Background(), matches.match.ID, "outsider")
	assert.ErrorIs(t, err, matching.ErrForbidden)

	svc, matches, gateway := newTestService(matching.StagePaymentRequired)
	gateway.err = errors.New("card network down")
	_, err = svc.CreateIntent(context.Background(), matches.match.ID, "adam")
	assert.ErrorIs(t, err, ErrGateway)
}

func TestHandleWebhookRecordsPayment(t *testing.T) {
	svc, matches, _ := newTestService(matching.StagePaymentRequired)
	payload, sig := signed(t, succeededEvent(matches.match.ID.String(), "adam"))

	result, err := svc.HandleWebhook(context.Background(), []byte(payload), sig)
	require.NoError(t, err)
	assert.True(t, result.Handled)
	assert.Equal(t, []string{matches.match.ID.String() + "/adam/pi_123"}, matches.recorded)
}

func TestHandleWebhookBadSignature(t *testing.T) {
	svc, matches, _ := newTestService(matching.StagePaymentRequired)
	payload, _ := signed(t, succeededEvent(matches.match.ID.String(), "adam"))

	_, err := svc.HandleWebhook(context.Background(), []byte(payload), "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Empty(t, matches.recorded)
}

func TestHandleWebhookIgnoresOtherEvents(t *testing.T) {
	svc, matches, _ := newTestService(matching.StagePaymentRequired)
	payload, sig := signed(t, `{"id": "evt_2", "object": "event", "type": "charge.refunded", "data": {"object": {}}}`)

	result, err := svc.HandleWebhook(context.Background(), []byte(payload), sig)
	require.NoError(t, err)
	assert.False(t, result.Handled)
	assert.Equal(t, "charge.refunded", result.Type)
	assert.Empty(t, matches.recorded)
}

func TestHandleWebhookAcksUnpayableMatch(t *testing.T) {
	svc, matches, _ := newTestService(matching.StageDeclined)
	matches.err = fmt.Errorf("%w: complete_payment from declined", matching.ErrInvalidTransition)
	payload, sig := signed(t, succeededEvent(matches.match.ID.String(), "adam"))

	result, err := svc.HandleWebhook(context.Background(), []byte(payload), sig)
	require.NoError(t, err)
	assert.False(t, result.Handled)

	matches.err = errors.New("connection reset")
	_, err = svc.HandleWebhook(context.Background(), []byte(payload), sig)
	assert.ErrorIs(t, err, ErrGateway)
}

func TestWebhookHandler(t *testing.T) {
	svc, matches, _ := newTestService(matching.StagePaymentRequired)
	router := mux.NewRouter()
	RegisterRoutes(router, NewHandler(svc), auth.NewMiddleware("secret"))

	payload, sig := signed(t, succeededEvent(matches.match.ID.String(), "eve"))

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", sig)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", "bogus")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateIntentHandler(t *testing.T) {
	svc, matches, _ := newTestService(matching.StagePending)
	router := mux.NewRouter()
	RegisterRoutes(router, NewHandler(svc), auth.NewMiddleware("secret"))
	path := "/api/v1/matches/" + matches.match.ID.String() + "/payment-intent"

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := utils.GenerateJWT(utils.NewAccessClaims("eve", "", utils.RoleMember, time.Hour), "secret")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body utils.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Match is not awaiting payment", body.Error)
	assert.Equal(t, ErrNotPayable.Error(), body.Details)
}
