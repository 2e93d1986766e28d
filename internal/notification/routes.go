// internal/notification/routes.go

package notification

import (
	"github.com/gorilla/mux"

	"github.com/vettly/vettly-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/notifications").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("", handler.GetNotifications).Methods("GET")
	api.HandleFunc("/unread-count", handler.GetUnreadCount).Methods("GET")
	api.HandleFunc("/{id}/viewed", handler.MarkAsViewed).Methods("PUT")
	api.HandleFunc("/{id}/read", handler.MarkAsRead).Methods("PUT")

	// Realtime
	ws := router.PathPrefix("/ws").Subrouter()
	ws.Use(authMiddleware.Authenticate)
	ws.HandleFunc("", handler.ServeWS).Methods("GET")
}
