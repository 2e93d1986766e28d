// internal/profile/handlers.go

package profile

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vettly/vettly-backend/internal/auth"
	"github.com/vettly/vettly-backend/internal/common/utils"
)

// Handler handles profile-related HTTP requests
type Handler struct {
	service Service
}

// NewHandler creates a new profile handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetMyProfile returns the caller's profile
func (h *Handler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProfile(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

// GetUserProfile lets a matchmaker read any member's profile
func (h *Handler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

// UpdateQuestionnaire merges questionnaire answers
func (h *Handler) UpdateQuestionnaire(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuestionnaireRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithDetailedError(w, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	p, err := h.service.UpdateQuestionnaire(r.Context(), auth.UserID(r.Context()), &req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

// UpdatePushToken registers the caller's device token
func (h *Handler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	var req UpdatePushTokenRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithDetailedError(w, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	if err := h.service.UpdatePushToken(r.Context(), auth.UserID(r.Context()), req.Token); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ArchiveUser soft-archives a member (matchmaker only)
func (h *Handler) ArchiveUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Archive(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProfileNotFound):
		utils.RespondWithDetailedError(w, http.StatusNotFound, "Profile not found", err)
	case errors.Is(err, ErrInvalidAnswers):
		utils.RespondWithDetailedError(w, http.StatusBadRequest, "Invalid questionnaire answers", err)
	default:
		utils.RespondWithDetailedError(w, http.StatusInternalServerError, "Profile request failed", err)
	}
}
