package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type bucket struct {
	count int
	until time.Time
}

// MemoryLimiter is a per-process fixed window limiter.
type MemoryLimiter struct {
	limit int
	per   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewMemoryLimiter allows limit requests per window for each key.
func NewMemoryLimiter(limit int, per time.Duration) *MemoryLimiter {
	if per <= 0 {
		per = time.Minute
	}
	return &MemoryLimiter{limit: limit, per: per, now: time.Now, buckets: make(map[string]*bucket)}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	if m.limit <= 0 {
		return Decision{Allowed: true}, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	b, ok := m.buckets[key]
	if !ok || now.After(b.until) {
		b = &bucket{count: 0, until: now.Add(m.per)}
		m.buckets[key] = b
	}
	if b.count >= m.limit {
		return Decision{Allowed: false, RetryAfter: b.until.Sub(now)}, nil
	}
	b.count++
	if len(m.buckets) > 4096 {
		m.pruneLocked(now)
	}
	return Decision{Allowed: true, Remaining: m.limit - b.count}, nil
}

func (m *MemoryLimiter) pruneLocked(now time.Time) {
	for key, b := range m.buckets {
		if now.After(b.until) {
			delete(m.buckets, key)
		}
	}
}

// RateLimit rejects requests once l denies the client IP. Limiter errors
// fail closed with 503.
func RateLimit(l Limiter, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIPForRateLimit(r)
			d, err := l.Allow(r.Context(), ip)
			if err != nil {
				logger.Error().Err(err).Str("client_ip", ip).Msg("rate limiter unavailable")
				writeError(w, http.StatusServiceUnavailable, "rate_limiter_unavailable", "rate limiter unavailable")
				return
			}
			if !d.Allowed {
				if d.RetryAfter > 0 {
					secs := int((d.RetryAfter + time.Second - 1) / time.Second)
					w.Header().Set("Retry-After", strconv.Itoa(secs))
				}
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

func clientIPForRateLimit(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if net.ParseIP(host) != nil {
			return host
		}
	} else if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}

	return r.RemoteAddr
}
