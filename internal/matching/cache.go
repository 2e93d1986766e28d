// internal/matching/cache.go

package matching

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vettly/vettly-backend/internal/explanation"
	"github.com/vettly/vettly-backend/internal/profile"
)

// ExplanationCache remembers generated explanations per match and answers
type ExplanationCache interface {
	Get(ctx context.Context, key string) (*explanation.Output, bool)
	Set(ctx context.Context, key string, out explanation.Output)
}

type redisExplanationCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisExplanationCache returns a Redis-backed cache, or a no-op cache
// when client is nil
func NewRedisExplanationCache(client *redis.Client, ttl time.Duration, log *zap.Logger) ExplanationCache {
	if client == nil {
		return noopCache{}
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisExplanationCache{client: client, ttl: ttl, log: log.Named("explanation_cache")}
}

func (c *redisExplanationCache) Get(ctx context.Context, key string) (*explanation.Output, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn("cache read failed", zap.Error(err))
		return nil, false
	}
	var out explanation.Output
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return &out, true
}

func (c *redisExplanationCache) Set(ctx context.Context, key string, out explanation.Output) {
	raw, err := json.Marshal(out)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", zap.Error(err))
	}
}

type noopCache struct{}

func (noopCache) Get(ctx context.Context, key string) (*explanation.Output, bool) { return nil, false }
func (noopCache) Set(ctx context.Context, key string, out explanation.Output)     {}

// explanationKey changes whenever either member edits their answers
func explanationKey(matchID uuid.UUID, a, b profile.Answers) string {
	raw, _ := json.Marshal([]profile.Answers{a, b})
	sum := sha256.Sum256(raw)
	return "explanation:" + matchID.String() + ":" + hex.EncodeToString(sum[:8])
}
