// Package ratelimit throttles failed login attempts per email and client IP.
package ratelimit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrRateLimited is returned once the failure budget for a key is spent
var ErrRateLimited = errors.New("too many failed attempts")

// ErrUnavailable wraps backend failures of the limiter itself
var ErrUnavailable = errors.New("rate limiter unavailable")

// LoginLimiter counts failed logins within a fixed window
type LoginLimiter interface {
	// Check returns ErrRateLimited when the key has no attempts left
	Check(ctx context.Context, key string) error

	// RecordFailure counts a failed attempt
	RecordFailure(ctx context.Context, key string) error

	// Reset forgets all failures for the key
	Reset(ctx context.Context, key string) error
}

// Config bounds failed attempts per window
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

// LoginKey builds the limiter key for an email and client IP
func LoginKey(email, ip string) string {
	return "login:" + strings.ToLower(strings.TrimSpace(email)) + ":" + ip
}

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is an in-process LoginLimiter used when Redis is not
// configured. Counts are lost on restart and not shared between replicas.
type MemoryLimiter struct {
	cfg       Config
	now       func() time.Time
	mu        sync.Mutex
	entries   map[string]*entry
	nextSweep time.Time
}

// NewMemoryLimiter creates a MemoryLimiter
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Check implements LoginLimiter
func (l *MemoryLimiter) Check(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.live(key)
	if e != nil && e.count >= l.cfg.MaxAttempts {
		return ErrRateLimited
	}
	return nil
}

// RecordFailure implements LoginLimiter
func (l *MemoryLimiter) RecordFailure(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep()
	e := l.live(key)
	if e == nil {
		e = &entry{resetAt: l.now().Add(l.cfg.Window)}
		l.entries[key] = e
	}
	e.count++
	if e.count >= l.cfg.MaxAttempts {
		return ErrRateLimited
	}
	return nil
}

// Reset implements LoginLimiter
func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, key)
	return nil
}

// live returns the entry for key, dropping it when its window has passed.
// Callers hold l.mu.
func (l *MemoryLimiter) live(key string) *entry {
	e, ok := l.entries[key]
	if !ok {
		return nil
	}
	if !l.now().Before(e.resetAt) {
		delete(l.entries, key)
		return nil
	}
	return e
}

// sweep drops every expired entry, at most once per window, so keys that are
// never seen again do not accumulate. Callers hold l.mu.
func (l *MemoryLimiter) sweep() {
	now := l.now()
	if now.Before(l.nextSweep) {
		return
	}
	for key, e := range l.entries {
		if !now.Before(e.resetAt) {
			delete(l.entries, key)
		}
	}
	l.nextSweep = now.Add(l.cfg.Window)
}
