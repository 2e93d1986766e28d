// internal/common/logger/logger.go
// zap logger construction shared by the API and the CLI

package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const maxLogPayload = 500

// New builds a zap logger. format is "json" or "console"; level is any zap level name.
func New(format, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	return cfg.Build()
}

// Truncate shortens long payloads (LLM responses, request bodies) before they hit the log.
func Truncate(value string) string {
	value = strings.TrimSpace(value)
	if len(value) <= maxLogPayload {
		return value
	}
	return value[:maxLogPayload] + "...(truncated)"
}
