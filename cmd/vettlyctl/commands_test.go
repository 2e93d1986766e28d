package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vettly/vettly-backend/internal/common/utils"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("JWT_SECRET", "cli-test-secret")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--env-file", "testdata-missing.env"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestScoreFromStdin(t *testing.T) {
	input := `{
		"a": {"values_children": "I want children", "lifestyle_smoking": "Never"},
		"b": {"values_children": "I don't want children", "lifestyle_smoking": "Never"}
	}`

	out, err := run(t, input, "score")
	require.NoError(t, err)

	var got scoreOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.False(t, got.Result.Compatible)
	assert.Equal(t, 0, got.Percent)
	assert.Equal(t, "children_preferences", got.Result.Reason)
	assert.Empty(t, got.MatchingPoints)
}

func TestScoreRejectsBadJSON(t *testing.T) {
	_, err := run(t, "not json", "score")
	assert.ErrorContains(t, err, "decode answers")
}

func TestTokenCommand(t *testing.T) {
	out, err := run(t, "", "token", "--user", "mm-7", "--role", "matchmaker", "--ttl", "1h")
	require.NoError(t, err)

	claims, err := utils.ValidateJWT(strings.TrimSpace(out), "cli-test-secret")
	require.NoError(t, err)
	assert.Equal(t, "mm-7", claims.UserID)
	assert.Equal(t, utils.RoleMatchmaker, claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), time.Unix(claims.ExpiresAt, 0), time.Minute)
}

func TestTokenCommandValidatesRole(t *testing.T) {
	_, err := run(t, "", "token", "--user", "u1", "--role", "admin")
	assert.ErrorContains(t, err, "role must be")

	_, err = run(t, "", "token")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "vettlyctl version: unknown\n", out)
}
