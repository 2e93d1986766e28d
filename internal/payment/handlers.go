// internal/payment/handlers.go

package payment

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/vettly/vettly-backend/internal/auth"
	"github.com/vettly/vettly-backend/internal/common/utils"
	"github.com/vettly/vettly-backend/internal/matching"
)

const maxWebhookBody = 65536

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreateIntent handles POST /api/v1/matches/{id}/payment-intent
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid match ID")
		return
	}

	resp, err := h.service.CreateIntent(r.Context(), id, auth.UserID(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, matching.ErrMatchNotFound):
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, matching.ErrForbidden), errors.Is(err, matching.ErrNotParticipant):
			utils.RespondWithError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, ErrNotPayable):
			utils.RespondWithDetailedError(w, http.StatusBadRequest, "Match is not awaiting payment", err)
		case errors.Is(err, ErrGateway):
			utils.RespondWithError(w, http.StatusBadGateway, "Payment provider unavailable")
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create payment")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// Webhook handles POST /api/webhooks/stripe
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Failed to read body")
		return
	}

	result, err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			utils.RespondWithDetailedError(w, http.StatusBadRequest, "Invalid webhook", err)
			return
		}
		utils.RespondWithError(w, http.StatusBadGateway, "Failed to process webhook")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}
