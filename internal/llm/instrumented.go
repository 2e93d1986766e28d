package llm

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	llmRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vettly_llm_requests_total",
			Help: "LLM requests by provider, call kind and outcome",
		},
		[]string{"provider", "kind", "outcome"},
	)

	llmRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vettly_llm_request_duration_seconds",
			Help:    "LLM request latency",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		},
		[]string{"provider", "kind"},
	)
)

// instrumented bounds every call with the same timeout and records metrics
type instrumented struct {
	next    Client
	timeout time.Duration
	log     *zap.Logger
}

// Instrument wraps a client with a per-call timeout, metrics and logging
func Instrument(next Client, timeout time.Duration, log *zap.Logger) Client {
	return &instrumented{next: next, timeout: timeout, log: log.Named("llm")}
}

func (c *instrumented) Name() string { return c.next.Name() }

func (c *instrumented) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	start := time.Now()
	out, err := c.next.Complete(ctx, req)
	c.observe("complete", start, err)
	return out, err
}

func (c *instrumented) CallFunction(ctx context.Context, req Request, fn Function) (json.RawMessage, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	start := time.Now()
	out, err := c.next.CallFunction(ctx, req, fn)
	c.observe("function", start, err)
	return out, err
}

func (c *instrumented) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *instrumented) observe(kind string, start time.Time, err error) {
	provider := c.next.Name()
	elapsed := time.Since(start)
	llmRequestDuration.WithLabelValues(provider, kind).Observe(elapsed.Seconds())

	outcome := "ok"
	if err != nil {
		outcome = "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		c.log.Warn("llm call failed",
			zap.String("provider", provider),
			zap.String("kind", kind),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
	}
	llmRequestsTotal.WithLabelValues(provider, kind, outcome).Inc()
}
