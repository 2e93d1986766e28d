package llm

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// MockClient is used in development when no provider key is configured.
// Every call fails with ErrNotConfigured so callers exercise their fallbacks.
type MockClient struct {
	log *zap.Logger
}

// NewMockClient creates a mock client
func NewMockClient(log *zap.Logger) *MockClient {
	return &MockClient{log: log}
}

func (c *MockClient) Name() string { return "mock" }

func (c *MockClient) Complete(ctx context.Context, req Request) (string, error) {
	c.log.Debug("mock llm completion", zap.Int("prompt_chars", len(req.Prompt)))
	return "", ErrNotConfigured
}

func (c *MockClient) CallFunction(ctx context.Context, req Request, fn Function) (json.RawMessage, error) {
	c.log.Debug("mock llm function call", zap.String("function", fn.Name))
	return nil, ErrNotConfigured
}
