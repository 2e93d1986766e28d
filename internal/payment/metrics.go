// internal/payment/metrics.go

package payment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	intentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vettly_payment_intents_total",
		Help: "Payment intents requested, by result",
	}, []string{"result"})

	webhooksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vettly_payment_webhooks_total",
		Help: "Stripe webhook deliveries, by event type and outcome",
	}, []string{"type", "outcome"})
)
