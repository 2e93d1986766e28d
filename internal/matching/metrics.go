// internal/matching/metrics.go

package matching

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	matchesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vettly_matches_created_total",
			Help: "Total number of matches created",
		},
	)

	stageTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vettly_match_stage_transitions_total",
			Help: "Stage transitions by event and resulting stage",
		},
		[]string{"event", "stage"},
	)

	matchesDeclined = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vettly_matches_declined_total",
			Help: "Total number of declined matches",
		},
	)

	matchesExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vettly_matches_expired_total",
			Help: "Total number of matches expired by the scheduler",
		},
	)

	datesApproved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vettly_dates_approved_total",
			Help: "Total number of matches approved for a date",
		},
	)

	proposalsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vettly_match_proposals_sent_total",
			Help: "Total number of proposal sends, including resends",
		},
	)

	candidateAnalyses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vettly_candidate_analyses_total",
			Help: "Completed candidate analysis runs",
		},
	)

	compatibilityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vettly_compatibility_scores",
			Help:    "Distribution of compatibility scores for created matches",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)
)
