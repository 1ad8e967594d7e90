package rediscache

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter per key.
type RateLimiter struct {
	c   *redis.Client
	now func() time.Time
}

func NewRateLimiter(c *redis.Client) *RateLimiter {
	return &RateLimiter{c: c, now: time.Now}
}

// Allow increments key and refreshes its TTL. It returns whether the new
// count is within limit, and the count itself.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	pipe := rl.c.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, 0, errors.Wrap(err, "redis ratelimit")
	}
	n := incr.Val()
	return n <= limit, n, nil
}

// AllowClient limits one client on one route within the current window.
func (rl *RateLimiter) AllowClient(ctx context.Context, route, client string, limit int64, window time.Duration) (bool, error) {
	if window <= 0 {
		window = time.Minute
	}
	slot := rl.now().UTC().Truncate(window).Unix()
	key := fmt.Sprintf("rl:%s:%s:%d", route, client, slot)
	ok, _, err := rl.Allow(ctx, key, limit, window+10*time.Second)
	return ok, err
}
