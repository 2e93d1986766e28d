// internal/llm/client.go
// Provider-neutral completion client used by explanations and weekly tips

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrEmptyResponse  = errors.New("llm returned an empty response")
	ErrNoFunctionCall = errors.New("llm did not call the requested function")
	ErrNotConfigured  = errors.New("llm provider is not configured")
)

// Request is a single-turn prompt
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
	// JSON asks the provider to constrain output to a JSON object
	JSON bool
}

// Function describes a structured-output function the model must call
type Function struct {
	Name        string
	Description string
	// Parameters is a JSON schema object
	Parameters json.RawMessage
}

// Client is implemented by every provider
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	CallFunction(ctx context.Context, req Request, fn Function) (json.RawMessage, error)
	Name() string
}

// ExtractJSON strips markdown code fences and surrounding prose from a model
// response and returns the outermost JSON object, or the trimmed input.
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			first := strings.TrimSpace(s[:nl])
			if first == "" || !strings.ContainsAny(first, "{[") {
				s = s[nl+1:]
			}
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
