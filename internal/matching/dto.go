// internal/matching/dto.go
package matching

import (
	"time"

	"github.com/vettly/vettly-backend/internal/compatibility"
	"github.com/vettly/vettly-backend/internal/explanation"
)

// DTOs for API requests/responses

type CreateMatchRequest struct {
	Member1ID       string `json:"member1Id" validate:"required"`
	Member2ID       string `json:"member2Id" validate:"required,nefield=Member1ID"`
	PaymentRequired *bool  `json:"paymentRequired,omitempty"`
}

type DeclineMatchRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type ScheduleMeetingRequest struct {
	ScheduledFor time.Time `json:"scheduledFor" validate:"required"`
}

type GenerateExplanationRequest struct {
	MatchID   string `json:"matchId" validate:"required,uuid"`
	Member1ID string `json:"member1Id" validate:"required"`
	Member2ID string `json:"member2Id" validate:"required"`
}

type ExplanationResponse struct {
	Member1Points []explanation.Point `json:"member1Points"`
	Member2Points []explanation.Point `json:"member2Points"`
	Member1ID     string              `json:"member1Id"`
	Member2ID     string              `json:"member2Id"`
	Generated     bool                `json:"generated"`
	Source        explanation.Source  `json:"source"`
}

type SendWithExplanationRequest struct {
	MatchID               string `json:"matchId" validate:"required,uuid"`
	IsResend              bool   `json:"isResend"`
	RegenerateExplanation bool   `json:"regenerateExplanation"`
}

type ExplanationPair struct {
	Member1Points []explanation.Point `json:"member1Points"`
	Member2Points []explanation.Point `json:"member2Points"`
}

type SendMetrics struct {
	GenerationMs         int64              `json:"generationMs"`
	ExplanationSource    explanation.Source `json:"explanationSource"`
	NotificationsWritten int                `json:"notificationsWritten"`
	IsResend             bool               `json:"isResend"`
}

type SendResponse struct {
	Success         bool            `json:"success"`
	MatchID         string          `json:"matchId"`
	NotificationIDs []string        `json:"notificationIds"`
	Explanation     ExplanationPair `json:"explanation"`
	Metrics         SendMetrics     `json:"metrics"`
}

type PreviewResponse struct {
	Member1ID          string                        `json:"member1Id"`
	Member2ID          string                        `json:"member2Id"`
	CompatibilityScore int                           `json:"compatibilityScore"`
	Result             compatibility.Result          `json:"result"`
	MatchingPoints     []compatibility.MatchingPoint `json:"matchingPoints"`
}
