// internal/payment/routes.go

package payment

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vettly/vettly-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	router.Handle("/api/v1/matches/{id}/payment-intent",
		authMiddleware.Authenticate(http.HandlerFunc(handler.CreateIntent))).Methods("POST")

	// Stripe authenticates with the signature header, not a bearer token
	router.HandleFunc("/api/webhooks/stripe", handler.Webhook).Methods("POST")
}
