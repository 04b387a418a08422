// Package ratelimit bounds request volume per client over a fixed window.
//
// The limiter is process-local and best-effort: counters live in memory and
// are lost on restart. It protects a single instance, not a fleet.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultMaxRequests = 25
	DefaultWindow      = 60 * time.Second
)

// Config is fixed at construction.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// Decision carries the outcome of one admission check, for response headers.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window counter keyed by client identity. It is safe for
// concurrent use: the read-check-increment for a key happens under one lock.
type Limiter struct {
	maxRequests int
	window      time.Duration
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

func New(cfg Config, opts ...Option) *Limiter {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultMaxRequests
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	l := &Limiter{
		maxRequests: cfg.MaxRequests,
		window:      cfg.Window,
		now:         time.Now,
		entries:     make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow admits or rejects one request for clientKey.
func (l *Limiter) Allow(clientKey string) bool {
	return l.Decide(clientKey).Allowed
}

// Decide is Allow plus the counter state after the call. A rejected call does
// not consume a slot.
func (l *Limiter) Decide(clientKey string) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[clientKey]
	if !ok {
		e = &entry{resetAt: now.Add(l.window)}
		l.entries[clientKey] = e
	}
	if now.After(e.resetAt) {
		e.count = 0
		e.resetAt = now.Add(l.window)
	}

	if e.count >= l.maxRequests {
		return Decision{
			Allowed:    false,
			Limit:      l.maxRequests,
			Remaining:  0,
			ResetAt:    e.resetAt,
			RetryAfter: e.resetAt.Sub(now),
		}
	}

	e.count++
	return Decision{
		Allowed:   true,
		Limit:     l.maxRequests,
		Remaining: l.maxRequests - e.count,
		ResetAt:   e.resetAt,
	}
}

// Sweep drops entries whose window has passed and returns how many it removed.
func (l *Limiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// StartSweeper calls Sweep every interval until ctx is done.
func (l *Limiter) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Sweep()
			}
		}
	}()
}

// Len reports how many client keys are tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Limiter) Limit() int {
	return l.maxRequests
}

func (l *Limiter) Window() time.Duration {
	return l.window
}
