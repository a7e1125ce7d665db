package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var errLimiterUnavailable = errors.New("rate limit backend unavailable")

// fixedWindowLimiter enforces "at most limit events per window per key"
// with a Redis counter whose TTL opens the next window. Used to throttle
// outbound challenge email (verification resend, reset requests), one
// window per identifier and one per caller IP.
type fixedWindowLimiter struct {
	redis  *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

func newFixedWindowLimiter(redisClient *redis.Client, prefix string, limit int, window time.Duration) *fixedWindowLimiter {
	return &fixedWindowLimiter{
		redis:  redisClient,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
	}
}

// Check counts one event against the identifier window and, when ip is
// non-empty, the IP window. Exceeding either limit returns limited=true.
// A Redis failure is reported as an error so callers can decide whether
// the throttle fails open.
func (l *fixedWindowLimiter) Check(ctx context.Context, identifier string, ip string) (bool, error) {
	if l == nil || l.window <= 0 {
		return false, nil
	}

	limited, err := l.enforceFixedWindow(ctx, l.prefix+":id:"+identifier)
	if err != nil || limited {
		return limited, err
	}
	if ip != "" {
		return l.enforceFixedWindow(ctx, l.prefix+":ip:"+ip)
	}
	return false, nil
}

func (l *fixedWindowLimiter) enforceFixedWindow(ctx context.Context, key string) (bool, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", errLimiterUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", errLimiterUnavailable, err)
		}
	}

	return count > l.limit, nil
}
