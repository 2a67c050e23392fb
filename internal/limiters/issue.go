package limiters

import (
	"context"
	"sync"
	"time"
)

// Config holds the issue-budget tuning parameters.
type Config struct {
	Window       time.Duration
	MaxPerWindow int
}

// Decision is the outcome of a TryConsume call. RetryAfter is meaningful only
// when Allowed is false.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// IssueLimiter enforces the per-identifier issue budget.
type IssueLimiter interface {
	TryConsume(ctx context.Context, identifier string, now time.Time) (Decision, error)
	// Purge forgets all windows. Test-isolation teardown.
	Purge(ctx context.Context) error
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryIssueLimiter keeps one fixed window per identifier in a process-local
// map. Windows are never deleted; the set is bounded by active-identifier
// cardinality.
type MemoryIssueLimiter struct {
	mu      sync.Mutex
	config  Config
	windows map[string]window
}

func NewMemoryIssueLimiter(cfg Config) *MemoryIssueLimiter {
	return &MemoryIssueLimiter{
		config:  cfg,
		windows: make(map[string]window),
	}
}

func (l *MemoryIssueLimiter) TryConsume(_ context.Context, identifier string, now time.Time) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[identifier]
	if !ok || !now.Before(w.resetAt) {
		l.windows[identifier] = window{count: 1, resetAt: now.Add(l.config.Window)}
		return Decision{Allowed: true}, nil
	}

	if w.count < l.config.MaxPerWindow {
		w.count++
		l.windows[identifier] = w
		return Decision{Allowed: true}, nil
	}

	// Denied. The count stays at the cap and the window is untouched.
	return Decision{Allowed: false, RetryAfter: w.resetAt.Sub(now)}, nil
}

func (l *MemoryIssueLimiter) Purge(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.windows = make(map[string]window)
	return nil
}
