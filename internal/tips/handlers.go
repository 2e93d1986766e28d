// internal/tips/handlers.go

package tips

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/vettly/vettly-backend/internal/auth"
	"github.com/vettly/vettly-backend/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GenerateTip handles POST /api/openai
func (h *Handler) GenerateTip(w http.ResponseWriter, r *http.Request) {
	var req GenerateTipRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithDetailedError(w, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	t, err := h.service.GenerateTip(r.Context(), req.Category, auth.UserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, GenerateTipResponse{Tip: t})
}

func (h *Handler) GetActive(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.GetActive(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, t)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := Status(q.Get("status"))
	if status != "" && !status.Valid() {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid status")
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	out, err := h.service.List(r.Context(), status, limit)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to list tips")
		return
	}
	if out == nil {
		out = []*Tip{}
	}

	utils.RespondWithJSON(w, http.StatusOK, out)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.service.Approve)
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.service.Activate)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.service.Reject)
}

func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.service.Archive)
}

func (h *Handler) action(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) (*Tip, error)) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid tip ID")
		return
	}

	t, err := fn(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, t)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTipNotFound), errors.Is(err, ErrNoActiveTip):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrConcurrentUpdate):
		utils.RespondWithDetailedError(w, http.StatusBadRequest, "Tip cannot change status", err)
	case errors.Is(err, ErrGeneration):
		utils.RespondWithError(w, http.StatusBadGateway, "Failed to generate tip")
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
