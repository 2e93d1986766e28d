package logger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	log, err := New("json", "debug")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(-1))

	log, err = New("console", "warn")
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(0))

	_, err = New("json", "loud")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("  short  "))

	long := strings.Repeat("a", maxLogPayload+10)
	out := Truncate(long)
	assert.True(t, strings.HasSuffix(out, "...(truncated)"))
	assert.Len(t, out, maxLogPayload+len("...(truncated)"))
}
