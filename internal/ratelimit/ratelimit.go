// Package ratelimit restricts how many requests may start within a trailing time window.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a sliding-window rate limiter. It remembers the start time of
// every acquisition still inside the window and makes callers wait until the
// oldest one ages out when the window is full.
//
// A nil *Limiter, or one built with maxRequests <= 0, never blocks.
type Limiter struct {
	maxRequests int
	window      time.Duration

	mu       sync.Mutex
	requests []time.Time
	now      func() time.Time
}

// New creates a limiter allowing maxRequests acquisitions per window.
func New(maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// Acquire blocks until another request may start without exceeding the
// limit, then records it. It returns ctx.Err() if ctx ends while waiting.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l == nil || l.maxRequests <= 0 || l.window <= 0 {
		return ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for {
		wait, ok := l.tryAcquire()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tryAcquire records an acquisition if the window has room. Otherwise it
// returns how long until the oldest retained acquisition leaves the window.
func (l *Limiter) tryAcquire() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if len(l.requests) < l.maxRequests {
		l.requests = append(l.requests, now)
		return 0, true
	}

	wait := l.window - now.Sub(l.requests[0])
	if wait <= 0 {
		wait = time.Millisecond
	}
	return wait, false
}

// prune drops timestamps that are no longer inside the window.
func (l *Limiter) prune(now time.Time) {
	keep := 0
	for keep < len(l.requests) && now.Sub(l.requests[keep]) >= l.window {
		keep++
	}
	if keep > 0 {
		l.requests = append(l.requests[:0], l.requests[keep:]...)
	}
}

// InWindow returns how many acquisitions are currently inside the window.
func (l *Limiter) InWindow() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.requests)
}
