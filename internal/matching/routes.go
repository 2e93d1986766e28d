// internal/matching/routes.go

package matching

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vettly/vettly-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	mm := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.RequireMatchmaker(h)
	}

	// Matchmaker explanation endpoints
	explain := router.PathPrefix("/api/matches").Subrouter()
	explain.Use(authMiddleware.Authenticate, authMiddleware.RequireMatchmaker)
	explain.HandleFunc("/generate-explanation", handler.GenerateExplanation).Methods("POST")
	explain.HandleFunc("/send-with-explanation", handler.SendWithExplanation).Methods("POST")

	matches := router.PathPrefix("/api/v1/matches").Subrouter()
	matches.Use(authMiddleware.Authenticate)

	matches.Handle("", mm(handler.CreateMatch)).Methods("POST")
	matches.HandleFunc("", handler.GetMatches).Methods("GET")
	matches.HandleFunc("/{id}", handler.GetMatch).Methods("GET")
	matches.Handle("/{id}/history", mm(handler.GetHistory)).Methods("GET")

	// Workflow
	matches.HandleFunc("/{id}/accept", handler.Accept).Methods("POST")
	matches.HandleFunc("/{id}/decline", handler.Decline).Methods("POST")
	matches.HandleFunc("/{id}/virtual-meeting", handler.ScheduleMeeting).Methods("POST")
	matches.Handle("/{id}/virtual-meeting/complete", mm(handler.CompleteMeeting)).Methods("POST")
	matches.Handle("/{id}/matchmaker-approve", mm(handler.MatchmakerApprove)).Methods("POST")
	matches.Handle("/{id}/approve-date", mm(handler.ApproveDate)).Methods("POST")

	// Matchmaker analysis
	compat := router.PathPrefix("/api/v1/compatibility").Subrouter()
	compat.Use(authMiddleware.Authenticate, authMiddleware.RequireMatchmaker)
	compat.HandleFunc("", handler.GetCompatibility).Methods("GET")

	matchmaker := router.PathPrefix("/api/v1/matchmaker").Subrouter()
	matchmaker.Use(authMiddleware.Authenticate, authMiddleware.RequireMatchmaker)
	matchmaker.HandleFunc("/suggestions", handler.GetSuggestions).Methods("GET")
	matchmaker.HandleFunc("/decline-analytics/{memberId}", handler.GetDeclineAnalytics).Methods("GET")
}
