package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisFixedWindowBlocksAfterLimit(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisFixedWindow(rdb, "rl:test", 2, time.Minute)
	ctx := context.Background()

	d, err := l.Allow(ctx, "203.0.113.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, err = l.Allow(ctx, "203.0.113.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, err = l.Allow(ctx, "203.0.113.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))

	d, err = l.Allow(ctx, "203.0.113.2")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	mr.FastForward(time.Minute + time.Second)
	d, err = l.Allow(ctx, "203.0.113.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisFixedWindowSetsExpiry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisFixedWindow(rdb, "rl:test", 5, 30*time.Second)

	_, err := l.Allow(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, mr.Exists("rl:test:k"))
	assert.Equal(t, 30*time.Second, mr.TTL("rl:test:k"))
}

func TestRedisFixedWindowFailsClosed(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedisFixedWindow(rdb, "rl:test", 5, time.Minute)
	mr.Close()

	_, err := l.Allow(context.Background(), "k")
	require.Error(t, err)

	h := RateLimit(l, zerolog.Nop())(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRedisFixedWindowNilClient(t *testing.T) {
	l := NewRedisFixedWindow(nil, "", 1, time.Minute)
	_, err := l.Allow(context.Background(), "k")
	assert.Error(t, err)
}
