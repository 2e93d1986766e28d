// internal/common/database/redis.go
// Redis connection and the distributed lock used by scheduled jobs

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrLockHeld is returned when another instance already holds the lock
var ErrLockHeld = errors.New("lock is held by another instance")

// NewRedisClientFromURL creates a Redis client from URL
func NewRedisClientFromURL(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// releaseScript deletes the key only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker runs a function while holding a Redis lock. A nil client runs the
// function unguarded, which is what single-instance deployments get.
type Locker struct {
	client *redis.Client
	prefix string
}

// NewLocker creates a Locker; client may be nil
func NewLocker(client *redis.Client) *Locker {
	return &Locker{client: client, prefix: "vettly:lock:"}
}

// WithLock acquires name for ttl, runs fn, and releases the lock.
// Returns ErrLockHeld without running fn if someone else owns it.
func (l *Locker) WithLock(ctx context.Context, name string, ttl time.Duration, fn func(context.Context) error) error {
	if l == nil || l.client == nil {
		return fn(ctx)
	}

	key := l.prefix + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !ok {
		return ErrLockHeld
	}
	defer releaseScript.Run(context.Background(), l.client, []string{key}, token)

	return fn(ctx)
}
