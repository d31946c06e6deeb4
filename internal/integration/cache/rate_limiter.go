package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/todo-app/backend/internal/application/adapter"
)

const rateLimitKeyPrefix = "ratelimit:"

// fixedWindowScript increments the counter and starts the window on the first hit.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {count, redis.call("PTTL", KEYS[1])}
`)

// fixedWindowLimiter implements adapter.RateLimiter with a per-key counter.
type fixedWindowLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewFixedWindowLimiter allows limit hits per key within each window.
func NewFixedWindowLimiter(client *redis.Client, limit int, window time.Duration) adapter.RateLimiter {
	return &fixedWindowLimiter{client: client, limit: limit, window: window}
}

// Allow records a hit for key and reports whether it is within the limit.
// When it is not, retryAfter is the time left in the current window.
func (l *fixedWindowLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l.limit <= 0 {
		return true, 0, nil
	}

	res, err := fixedWindowScript.Run(ctx, l.client, []string{rateLimitKeyPrefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("redis rate limit: %w", err)
	}

	count, ttl := res[0], time.Duration(res[1])*time.Millisecond
	if count > int64(l.limit) {
		return false, ttl, nil
	}
	return true, 0, nil
}
