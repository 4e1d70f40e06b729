// Package ratelimit keeps per-client request budgets in Redis so that every
// server instance in front of the same dataset shares them.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "matrix:ratelimit:ip:"

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter is a per-key requests-per-minute limit backed by Redis
type Limiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
}

// NewLimiter allows perMinute requests per key, with the whole minute's
// budget available as burst.
func NewLimiter(client *RedisClient, perMinute int) *Limiter {
	return newLimiter(client.client, perMinute)
}

func newLimiter(client *redis.Client, perMinute int) *Limiter {
	return &Limiter{
		limiter: redis_rate.NewLimiter(client),
		limit:   redis_rate.PerMinute(perMinute),
	}
}

// Allow spends one request from key's budget.
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	res, err := l.limiter.Allow(ctx, keyPrefix+key, l.limit)
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}

	result := &Result{
		Allowed:   res.Allowed > 0,
		Limit:     res.Limit.Rate,
		Remaining: res.Remaining,
	}
	if !result.Allowed {
		result.RetryAfter = res.RetryAfter
	}
	return result, nil
}
