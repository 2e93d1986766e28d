// internal/notification/metrics.go

package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notificationsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vettly_notifications_written_total",
		Help: "Notifications inserted (duplicates excluded)",
	})

	notificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vettly_notifications_dispatched_total",
		Help: "Outbox dispatch outcomes",
	}, []string{"outcome"})

	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vettly_websocket_connections",
		Help: "Open websocket connections",
	})
)
