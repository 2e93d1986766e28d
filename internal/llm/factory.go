package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Config selects and configures a provider
type Config struct {
	Provider     string
	OpenAIAPIKey string
	OpenAIModel  string
	GeminiAPIKey string
	GeminiModel  string
	Timeout      time.Duration
}

// New builds the configured provider wrapped with Instrument
func New(ctx context.Context, cfg Config, log *zap.Logger) (Client, error) {
	var (
		client Client
		err    error
	)
	switch cfg.Provider {
	case "openai":
		client, err = NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	case "gemini":
		client, err = NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case "mock", "":
		client = NewMockClient(log)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(client, cfg.Timeout, log), nil
}
