package main

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/vettly/vettly-backend/internal/common/utils"
)

// healthCheck reports liveness plus a database ping
func healthCheck(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status, code := "healthy", http.StatusOK
		dbStatus := "ok"
		if err := db.PingContext(ctx); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
			dbStatus = err.Error()
		}

		utils.RespondWithJSON(w, code, map[string]interface{}{
			"status":    status,
			"database":  dbStatus,
			"timestamp": time.Now().Format(time.RFC3339),
			"uptime":    time.Since(startTime).String(),
		})
	}
}

func apiInfo(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "Vettly Matchmaking API",
		"version": "1.0.0",
		"status":  "running",
		"endpoints": map[string]interface{}{
			"health":  "GET /health",
			"metrics": "GET /metrics",
			"matches": map[string]string{
				"create":          "POST /api/v1/matches",
				"list":            "GET /api/v1/matches",
				"get":             "GET /api/v1/matches/{id}",
				"accept":          "POST /api/v1/matches/{id}/accept",
				"decline":         "POST /api/v1/matches/{id}/decline",
				"payment_intent":  "POST /api/v1/matches/{id}/payment-intent",
				"virtual_meeting": "POST /api/v1/matches/{id}/virtual-meeting",
				"approve_date":    "POST /api/v1/matches/{id}/approve-date",
			},
			"explanations": map[string]string{
				"generate": "POST /api/matches/generate-explanation",
				"send":     "POST /api/matches/send-with-explanation",
			},
			"tips": map[string]string{
				"generate": "POST /api/openai",
				"active":   "GET /api/v1/tips/active",
			},
			"notifications": "GET /api/v1/notifications",
			"websocket":     "GET /ws",
		},
	})
}

// loggingMiddleware logs every request with its status and latency
func loggingMiddleware(log *zap.Logger) mux.MiddlewareFunc {
	log = log.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
			}
			if wrapped.statusCode >= http.StatusInternalServerError {
				log.Error("request", fields...)
				return
			}
			log.Info("request", fields...)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrade through the wrapper
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}
