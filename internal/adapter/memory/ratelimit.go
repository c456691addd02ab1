package memory

import (
	"context"
	"sync"
	"time"

	"brandsite/internal/domain"
)

type attempt struct {
	count int
	last  time.Time
}

// RateLimiter is a per-process limiter. A record resets once window has
// passed since its last attempt; every attempt, allowed or not, refreshes
// the timestamp. Counters are not shared across instances.
type RateLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	attempts map[string]*attempt
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

var _ domain.RateLimiter = (*RateLimiter)(nil)

// NewRateLimiter creates a limiter admitting limit attempts per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		window:   window,
		attempts: make(map[string]*attempt),
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Allow records an attempt for identifier and reports whether it is admitted.
func (l *RateLimiter) Allow(ctx context.Context, identifier string) (bool, time.Duration) {
	if identifier == "" {
		identifier = "unknown"
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.attempts[identifier]
	if a == nil || now.Sub(a.last) > l.window {
		l.attempts[identifier] = &attempt{count: 1, last: now}
		return true, 0
	}
	a.count++
	a.last = now
	if a.count > l.limit {
		return false, l.window
	}
	return true, 0
}

// StartSweeper drops stale records every interval until Stop is called.
func (l *RateLimiter) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.sweep()
			case <-l.stopCh:
				return
			}
		}
	}()
}

// Stop ends the sweeper goroutine.
func (l *RateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

func (l *RateLimiter) sweep() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, a := range l.attempts {
		if now.Sub(a.last) > l.window {
			delete(l.attempts, k)
		}
	}
}
