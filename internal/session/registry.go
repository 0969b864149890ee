package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"roomdesign/internal/domain"
	"roomdesign/internal/infra"
	"roomdesign/internal/metrics"
	"roomdesign/internal/workflow"
)

const defaultTTL = time.Hour

// Entry is one live workflow session.
type Entry struct {
	ID         string
	Controller *workflow.Controller
	CreatedAt  time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// LastSeen reports when the session was last touched.
func (e *Entry) LastSeen() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSeen
}

func (e *Entry) touch(now time.Time) {
	e.mu.Lock()
	if now.After(e.lastSeen) {
		e.lastSeen = now
	}
	e.mu.Unlock()
}

// Options configures a Registry.
type Options struct {
	Generator          workflow.Generator
	VisualizationCount int
	TTL                time.Duration
	Logger             *infra.Logger
	Now                func() time.Time
}

// Registry keeps workflow sessions in memory keyed by UUID and expires idle
// ones. Sessions with a phase in flight are never expired.
type Registry struct {
	gen    workflow.Generator
	count  int
	ttl    time.Duration
	logger *infra.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts Options) *Registry {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		gen:     opts.Generator,
		count:   opts.VisualizationCount,
		ttl:     ttl,
		logger:  logger,
		now:     now,
		entries: make(map[string]*Entry),
	}
}

// Create starts a new idle session.
func (r *Registry) Create() *Entry {
	id := uuid.NewString()
	logger := r.logger.With().Str("session_id", id).Logger()
	now := r.now()
	entry := &Entry{
		ID: id,
		Controller: workflow.NewController(workflow.Options{
			Generator:          r.gen,
			VisualizationCount: r.count,
			Logger:             &logger,
		}),
		CreatedAt: now,
		lastSeen:  now,
	}

	r.mu.Lock()
	r.entries[id] = entry
	n := len(r.entries)
	r.mu.Unlock()

	metrics.SetActiveSessions(n)
	logger.Debug().Msg("session: created")
	return entry
}

// Get looks up a session and marks it as used.
func (r *Registry) Get(id string) (*Entry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}
	r.mu.RLock()
	entry, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}
	entry.touch(r.now())
	return entry, nil
}

// Delete drops a session. An in-flight phase runs to completion on its own.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	_, ok := r.entries[id]
	delete(r.entries, id)
	n := len(r.entries)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}
	metrics.SetActiveSessions(n)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Sweep removes sessions idle since before now-TTL and returns how many were removed.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.ttl)
	removed := 0

	r.mu.Lock()
	for id, entry := range r.entries {
		if entry.Controller.State() != domain.StateIdle {
			continue
		}
		if entry.LastSeen().Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	n := len(r.entries)
	r.mu.Unlock()

	metrics.SetActiveSessions(n)
	if removed > 0 {
		r.logger.Info().Int("expired", removed).Int("active", n).Msg("session: swept idle sessions")
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(r.now())
		}
	}
}
