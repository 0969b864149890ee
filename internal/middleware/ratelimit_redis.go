package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// INCR then set the expiry on the first hit; returns {count, ttl_ms}.
var fixedWindowScript = redis.NewScript(`
local c = redis.call("INCR", KEYS[1])
if c == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {c, ttl}
`)

// RedisFixedWindow shares a fixed window limit across replicas.
type RedisFixedWindow struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedisFixedWindow allows limit requests per window for each key.
func NewRedisFixedWindow(rdb *redis.Client, prefix string, limit int, window time.Duration) *RedisFixedWindow {
	if window <= 0 {
		window = time.Minute
	}
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisFixedWindow{rdb: rdb, limit: limit, window: window, prefix: prefix}
}

// Allow returns an error when Redis cannot be reached; RateLimit then fails closed.
func (l *RedisFixedWindow) Allow(ctx context.Context, key string) (Decision, error) {
	if l.limit <= 0 {
		return Decision{Allowed: true}, nil
	}
	if l.rdb == nil {
		return Decision{}, fmt.Errorf("ratelimit: redis client not configured")
	}

	res, err := fixedWindowScript.Run(ctx, l.rdb, []string{l.prefix + ":" + key}, l.window.Milliseconds()).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit redis eval: %w", err)
	}
	arr, ok := res.([]any)
	if !ok || len(arr) != 2 {
		return Decision{}, fmt.Errorf("ratelimit redis eval: unexpected result %T", res)
	}
	count, ok1 := arr[0].(int64)
	ttlMs, ok2 := arr[1].(int64)
	if !ok1 || !ok2 {
		return Decision{}, fmt.Errorf("ratelimit redis eval: unexpected result types")
	}

	d := Decision{Allowed: int(count) <= l.limit, Remaining: max(0, l.limit-int(count))}
	if !d.Allowed {
		d.RetryAfter = time.Duration(ttlMs) * time.Millisecond
		if d.RetryAfter <= 0 {
			d.RetryAfter = l.window
		}
	}
	return d, nil
}
