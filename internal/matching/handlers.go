// internal/matching/handlers.go

package matching

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/vettly/vettly-backend/internal/auth"
	"github.com/vettly/vettly-backend/internal/common/utils"
	"github.com/vettly/vettly-backend/internal/profile"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GenerateExplanation handles POST /api/matches/generate-explanation
func (h *Handler) GenerateExplanation(w http.ResponseWriter, r *http.Request) {
	var req GenerateExplanationRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithDetailedError(w, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	resp, err := h.service.GenerateExplanation(r.Context(), &req)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// SendWithExplanation handles POST /api/matches/send-with-explanation
func (h *Handler) SendWithExplanation(w http.ResponseWriter, r *http.Request) {
	var req SendWithExplanationRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithDetailedError(w, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	resp, err := h.service.SendWithExplanation(r.Context(), auth.UserID(r.Context()), &req)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req CreateMatchRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithDetailedError(w, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	m, err := h.service.CreateMatch(r.Context(), auth.UserID(r.Context()), &req)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, m)
}

// GetMatches lists the caller's matches; matchmakers see the ones they created
func (h *Handler) GetMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		matches []*Match
		err     error
	)
	if auth.IsMatchmaker(ctx) {
		matches, err = h.service.ListForMatchmaker(ctx, auth.UserID(ctx))
	} else {
		matches, err = h.service.ListForMember(ctx, auth.UserID(ctx))
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get matches")
		return
	}
	if matches == nil {
		matches = []*Match{}
	}

	utils.RespondWithJSON(w, http.StatusOK, matches)
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := matchID(w, r)
	if !ok {
		return
	}

	m, err := h.service.GetMatch(r.Context(), id, auth.UserID(r.Context()), auth.IsMatchmaker(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, m)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := matchID(w, r)
	if !ok {
		return
	}

	events, err := h.service.History(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if events == nil {
		events = []*MatchEvent{}
	}

	utils.RespondWithJSON(w, http.StatusOK, events)
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	id, ok := matchID(w, r)
	if !ok {
		return
	}

	m, err := h.service.AcceptMatch(r.Context(), id, auth.UserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, m)
}

func (h *Handler) Decline(w http.ResponseWriter, r *http.Request) {
	id, ok := matchID(w, r)
	if !ok {
		return
	}

	var req DeclineMatchRequest
	if r.ContentLength != 0 {
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.RespondWithDetailedError(w, http.StatusBadRequest, "Invalid request payload", err)
			return
		}
	}

	m, err := h.service.DeclineMatch(r.Context(), id, auth.UserID(r.Context()), req.Reason)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, m)
}

func (h *Handler) ScheduleMeeting(w http.ResponseWriter, r *http.Request) {
	id, ok := matchID(w, r)
	if !ok {
		return
	}

	var req ScheduleMeetingRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithDetailedError(w, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	m, err := h.service.ScheduleVirtualMeeting(r.Context(), id, auth.UserID(r.Context()), req.ScheduledFor)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, m)
}

func (h *Handler) CompleteMeeting(w http.ResponseWriter, r *http.Request) {
	h.matchmakerAction(w, r, h.service.CompleteVirtualMeeting)
}

func (h *Handler) MatchmakerApprove(w http.ResponseWriter, r *http.Request) {
	h.matchmakerAction(w, r, h.service.MatchmakerApprove)
}

func (h *Handler) ApproveDate(w http.ResponseWriter, r *http.Request) {
	h.matchmakerAction(w, r, h.service.ApproveMatchForDate)
}

func (h *Handler) matchmakerAction(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID, matchmakerID string) (*Match, error)) {
	id, ok := matchID(w, r)
	if !ok {
		return
	}

	m, err := fn(r.Context(), id, auth.UserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, m)
}

// GetCompatibility previews a pair without creating a match
func (h *Handler) GetCompatibility(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	member1, member2 := q.Get("member1Id"), q.Get("member2Id")
	if member1 == "" || member2 == "" || member1 == member2 {
		utils.RespondWithError(w, http.StatusBadRequest, "member1Id and member2Id are required and must differ")
		return
	}

	resp, err := h.service.Preview(r.Context(), member1, member2)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	memberID := r.URL.Query().Get("memberId")
	if memberID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "memberId is required")
		return
	}

	suggestions, err := h.service.Suggestions(r.Context(), memberID)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get suggestions")
		return
	}
	if suggestions == nil {
		suggestions = []*Suggestion{}
	}

	utils.RespondWithJSON(w, http.StatusOK, suggestions)
}

func (h *Handler) GetDeclineAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.service.DeclineAnalytics(r.Context(), mux.Vars(r)["memberId"])
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get decline analytics")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, analytics)
}

func matchID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid match ID")
		return uuid.Nil, false
	}
	return id, true
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMatchNotFound), errors.Is(err, profile.ErrProfileNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotParticipant):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrConcurrentUpdate):
		utils.RespondWithDetailedError(w, http.StatusBadRequest, "Match cannot move to the requested stage", err)
	case errors.Is(err, ErrMatchExists),
		errors.Is(err, ErrIncompatible),
		errors.Is(err, ErrMemberArchived),
		errors.Is(err, ErrVirtualMeetingIncomplete),
		errors.Is(err, ErrMeetingNotScheduled),
		errors.Is(err, ErrMemberMismatch),
		errors.Is(err, ErrInvalidSchedule),
		errors.Is(err, ErrPaymentReferenceRequired):
		utils.RespondWithDetailedError(w, http.StatusBadRequest, "Match precondition not met", err)
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
