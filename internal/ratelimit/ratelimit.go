// Package ratelimit bounds request frequency per caller and endpoint class.
// It is the only mutable shared state in the service outside the database.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Scope names an endpoint class with its own quota.
type Scope string

const (
	ScopeReviewCreate Scope = "review-create"
	ScopeReviewList   Scope = "review-list"
	ScopeReviewDetail Scope = "review-detail"
	ScopeAnon         Scope = "anon"
)

// Quota is the budget for one scope: Requests per Window.
type Quota struct {
	Requests int
	Window   time.Duration
}

type entry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Limiter keeps a token bucket per (scope, caller) key. Increment-and-check
// is atomic per key: the map is mutex guarded and each bucket is safe for
// concurrent use.
type Limiter struct {
	mu        sync.Mutex
	quotas    map[Scope]Quota
	entries   map[string]*entry
	stopClean chan struct{}
	stopOnce  sync.Once
}

// New constructs a Limiter with the given per-scope quotas and starts a
// background sweep of stale buckets.
func New(quotas map[Scope]Quota) *Limiter {
	l := &Limiter{
		quotas:    quotas,
		entries:   make(map[string]*entry),
		stopClean: make(chan struct{}),
	}
	go l.startCleanup(5 * time.Minute)
	return l
}

// Allow reports whether the caller may proceed within the scope's quota.
// Scopes without a configured quota are unlimited.
func (l *Limiter) Allow(scope Scope, caller string) bool {
	quota, ok := l.quotas[scope]
	if !ok || quota.Requests <= 0 {
		return true
	}

	key := string(scope) + ":" + caller

	l.mu.Lock()
	e, exists := l.entries[key]
	if !exists {
		refill := rate.Every(quota.Window / time.Duration(quota.Requests))
		e = &entry{
			limiter:    rate.NewLimiter(refill, quota.Requests),
			lastAccess: time.Now(),
		}
		l.entries[key] = e
	} else {
		e.lastAccess = time.Now()
	}
	bucket := e.limiter
	l.mu.Unlock()

	return bucket.Allow()
}

func (l *Limiter) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopClean:
			return
		}
	}
}

// cleanup removes buckets that have not been touched for an hour.
func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	threshold := time.Now().Add(-1 * time.Hour)
	for key, e := range l.entries {
		if e.lastAccess.Before(threshold) {
			delete(l.entries, key)
		}
	}
}

// Stop terminates the cleanup goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopClean) })
}
