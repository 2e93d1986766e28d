// internal/tips/metrics.go

package tips

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var tipsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vettly_tips_generated_total",
	Help: "Tip generation attempts, by result",
}, []string{"result"})
