package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RateLimiter counts requests per key in fixed windows.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

func decide(count, maxAttempts int64, resetAt time.Time) Decision {
	remaining := maxAttempts - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= maxAttempts,
		Remaining: int(remaining),
		ResetAt:   resetAt,
	}
}

// RedisRateLimiter shares its counters across server instances.
type RedisRateLimiter struct {
	client      *redis.Client
	prefix      string
	window      time.Duration
	maxAttempts int64
	now         func() time.Time
}

// NewRedisRateLimiter creates a new rate limiter using Redis
func NewRedisRateLimiter(client *redis.Client, window time.Duration, maxAttempts int64) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:      client,
		prefix:      "streaky:ratelimit:",
		window:      window,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	windowStart := rl.now().Truncate(rl.window)
	resetAt := windowStart.Add(rl.window)
	redisKey := fmt.Sprintf("%s%s:%d", rl.prefix, key, windowStart.Unix())

	pipe := rl.client.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireAt(ctx, redisKey, resetAt)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limiter error: %w", err)
	}

	return decide(incr.Val(), rl.maxAttempts, resetAt), nil
}

// MemoryRateLimiter keeps counters in process. Used when Redis is disabled.
type MemoryRateLimiter struct {
	window      time.Duration
	maxAttempts int64
	now         func() time.Time

	mu      sync.Mutex
	start   time.Time
	counter map[string]int64
}

func NewMemoryRateLimiter(window time.Duration, maxAttempts int64) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		window:      window,
		maxAttempts: maxAttempts,
		now:         time.Now,
		counter:     make(map[string]int64),
	}
}

func (rl *MemoryRateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	windowStart := rl.now().Truncate(rl.window)
	if !windowStart.Equal(rl.start) {
		rl.start = windowStart
		rl.counter = make(map[string]int64)
	}
	rl.counter[key]++
	return decide(rl.counter[key], rl.maxAttempts, windowStart.Add(rl.window)), nil
}
