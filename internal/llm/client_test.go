package llm

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExtractJSON(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                          `{"a":1}`,
		"```json\n{\"a\":1}\n```":          `{"a":1}`,
		"```\n{\"a\":1}\n```":              `{"a":1}`,
		"Sure! Here you go: {\"a\":{}} :)": `{"a":{}}`,
		"no json here":                     "no json here",
	}
	for in, want := range cases {
		assert.Equal(t, want, ExtractJSON(in), "input %q", in)
	}
}

type slowClient struct{}

func (slowClient) Name() string { return "slow" }

func (slowClient) Complete(ctx context.Context, req Request) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (slowClient) CallFunction(ctx context.Context, req Request, fn Function) (json.RawMessage, error) {
	return json.RawMessage(`{"ok":true}`), nil
}

func TestInstrumentAppliesTimeout(t *testing.T) {
	c := Instrument(slowClient{}, 20*time.Millisecond, zap.NewNop())

	start := time.Now()
	_, err := c.Complete(context.Background(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)

	out, err := c.CallFunction(context.Background(), Request{}, Function{Name: "f"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(out))
	assert.Equal(t, "slow", c.Name())
}

func TestMockClientFails(t *testing.T) {
	c := NewMockClient(zap.NewNop())
	_, err := c.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewSelectsProvider(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, Config{Provider: "mock", Timeout: time.Second}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "mock", c.Name())

	_, err = New(ctx, Config{Provider: "openai"}, zap.NewNop())
	assert.Error(t, err)

	_, err = New(ctx, Config{Provider: "claude"}, zap.NewNop())
	assert.EqualError(t, err, `unknown llm provider "claude"`)
}
