// internal/profile/routes.go

package profile

import (
	"github.com/go-chi/chi/v5"

	"github.com/vettly/vettly-backend/internal/auth"
)

// NewRouter builds the chi router for profile routes. cmd/api mounts it
// under /api/v1/profile and /api/v1/users.
func NewRouter(handler *Handler, authMiddleware *auth.Middleware) chi.Router {
	r := chi.NewRouter()
	RegisterRoutes(r, handler, authMiddleware)
	return r
}

// RegisterRoutes registers all profile routes
func RegisterRoutes(r chi.Router, handler *Handler, authMiddleware *auth.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Get("/api/v1/profile", handler.GetMyProfile)
		r.Put("/api/v1/profile/questionnaire", handler.UpdateQuestionnaire)
		r.Put("/api/v1/profile/push-token", handler.UpdatePushToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireMatchmaker)
			r.Get("/api/v1/users/{id}/profile", handler.GetUserProfile)
			r.Post("/api/v1/users/{id}/archive", handler.ArchiveUser)
		})
	})
}
