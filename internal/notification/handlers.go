// internal/notification/handlers.go

package notification

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
	hub     *Hub
}

func NewHandler(service Service, hub *Hub) *Handler {
	return &Handler{service: service, hub: hub}
}

// GetNotifications lists the caller's notifications
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	out, err := h.service.List(r.Context(), auth.UserID(r.Context()), ListOptions{
		Collection:     Collection(q.Get("collection")),
		LatestPerMatch: q.Get("latest") == "true",
		Limit:          limit,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCollection) {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get notifications")
		return
	}
	if out == nil {
		out = []*Notification{}
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": out,
		"count":         len(out),
	})
}

// GetUnreadCount returns the caller's pending notification count
func (h *Handler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.UnreadCount(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get unread count")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]int{"count": count})
}

// MarkAsViewed marks a notification viewed
func (h *Handler) MarkAsViewed(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.service.MarkViewed)
}

// MarkAsRead marks a notification read
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.service.MarkRead)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID, recipientID string) error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	if err := fn(r.Context(), id, auth.UserID(r.Context())); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Notification not found")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update notification")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ServeWS opens the caller's realtime channel
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r, auth.UserID(r.Context()))
}
