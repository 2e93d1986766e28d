// internal/explanation/generator.go
// LLM-written match explanations with a guaranteed shape

package explanation

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/vettly/vettly-backend/internal/common/logger"
	"github.com/vettly/vettly-backend/internal/llm"
)

var explanationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vettly_explanations_generated_total",
		Help: "Match explanations by the path that produced them",
	},
	[]string{"source"},
)

// Generator writes match explanations. It is stateless; callers persist the output.
type Generator struct {
	client llm.Client
	log    *zap.Logger
}

// NewGenerator creates a Generator
func NewGenerator(client llm.Client, log *zap.Logger) *Generator {
	return &Generator{client: client, log: log.Named("explanation")}
}

// Generate makes one model call and always returns points for both members
func (g *Generator) Generate(ctx context.Context, in Input) Output {
	raw, err := g.client.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      BuildPrompt(in),
		Temperature: 0.7,
		MaxTokens:   1500,
		JSON:        true,
	})
	if err != nil {
		g.log.Warn("explanation generation failed, using fallback", zap.Error(err))
		out := Output{Member1Points: Fallback(), Member2Points: Fallback(), Source: SourceFallback}
		explanationsTotal.WithLabelValues(string(out.Source)).Inc()
		return out
	}

	out := Parse(raw)
	if out.Source != SourceLLM {
		g.log.Warn("explanation response was not valid JSON",
			zap.String("source", string(out.Source)),
			zap.String("response", logger.Truncate(raw)))
	}
	explanationsTotal.WithLabelValues(string(out.Source)).Inc()
	return out
}
