package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pos-payment-system/internal/core/ports"
)

const keyPrefix = "pos:ratelimit:"

var _ ports.RateLimiterRepository = (*RateLimiterAdapter)(nil)

// RateLimiterAdapter is a Redis implementation of the RateLimiterRepository port.
type RateLimiterAdapter struct {
	rdb redis.Cmdable
}

func NewRateLimiterAdapter(rdb redis.Cmdable) *RateLimiterAdapter {
	return &RateLimiterAdapter{rdb: rdb}
}

// IsAllowed implements a fixed-window counter: the first hit of a window sets its TTL.
func (a *RateLimiterAdapter) IsAllowed(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	redisKey := keyPrefix + key

	count, err := a.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("redis INCR failed: %w", err)
	}

	if count == 1 {
		if err := a.rdb.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, fmt.Errorf("redis EXPIRE failed: %w", err)
		}
	}

	return count <= int64(limit), nil
}
