package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitResult is the outcome of one fixed-window check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter counts hits per key in fixed windows (INCR + EXPIRE).
// Callers decide what to do when Redis itself fails; the HTTP middleware
// fails open.
type RateLimiter struct {
	redis redis.UniversalClient
}

func NewRateLimiter(client redis.UniversalClient) *RateLimiter {
	return &RateLimiter{redis: client}
}

// Check increments the counter for key and reports whether the hit is
// within limit for the window.
func (l *RateLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (RateLimitResult, error) {
	current, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return RateLimitResult{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if current == 1 {
		if err := l.redis.Expire(ctx, key, window).Err(); err != nil {
			return RateLimitResult{}, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	ttl, err := l.redis.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = window
	}

	remaining := limit - int(current)
	if remaining < 0 {
		remaining = 0
	}

	return RateLimitResult{
		Allowed:    current <= int64(limit),
		Limit:      limit,
		Remaining:  remaining,
		RetryAfter: ttl,
	}, nil
}
