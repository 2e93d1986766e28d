package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("PORT", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("WEEKLY_TIP_WEEKDAY", "")
	t.Setenv("LLM_TIMEOUT", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("NEXT_PUBLIC_OPENAI_API_KEY", "sk-public")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, "sk-public", cfg.OpenAIAPIKey)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.Equal(t, time.Monday, cfg.WeeklyTipWeekday)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("WEEKLY_TIP_WEEKDAY", "fri")
	t.Setenv("MATCH_EXPIRY", "72h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://vettly.com, https://admin.vettly.com")
	t.Setenv("NOTIFICATION_MAX_ATTEMPTS", "not-a-number")

	cfg := Load()

	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, time.Friday, cfg.WeeklyTipWeekday)
	assert.Equal(t, 72*time.Hour, cfg.MatchExpiry)
	assert.Equal(t, []string{"https://vettly.com", "https://admin.vettly.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 5, cfg.NotificationMaxAttempts)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment:             "development",
			DatabaseURL:             "postgres://localhost/vettly",
			JWTSecret:               defaultJWTSecret,
			LLMProvider:             "mock",
			EmailProvider:           "mock",
			SMSProvider:             "mock",
			WeeklyTipHour:           9,
			NotificationMaxAttempts: 3,
		}
	}

	require.NoError(t, base().Validate())

	cfg := base()
	cfg.Environment = "production"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.LLMProvider = "openai"
	assert.EqualError(t, cfg.Validate(), "OPENAI_API_KEY is required when LLM_PROVIDER=openai")

	cfg = base()
	cfg.StripeSecretKey = "sk_test_123"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.WeeklyTipHour = 24
	assert.Error(t, cfg.Validate())
}
