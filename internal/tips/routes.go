// internal/tips/routes.go

package tips

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vettly/vettly-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	mm := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.RequireMatchmaker(h)
	}

	generate := router.PathPrefix("/api/openai").Subrouter()
	generate.Use(authMiddleware.Authenticate, authMiddleware.RequireMatchmaker)
	generate.HandleFunc("", handler.GenerateTip).Methods("POST")

	api := router.PathPrefix("/api/v1/tips").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/active", handler.GetActive).Methods("GET")
	api.Handle("", mm(handler.List)).Methods("GET")
	api.Handle("/{id}/approve", mm(handler.Approve)).Methods("POST")
	api.Handle("/{id}/activate", mm(handler.Activate)).Methods("POST")
	api.Handle("/{id}/reject", mm(handler.Reject)).Methods("POST")
	api.Handle("/{id}/archive", mm(handler.Archive)).Methods("POST")
}
