// Package ratelimit throttles gateway-bound requests per user with token
// buckets. Every conversational reply and extraction judgement costs one
// upstream model call, so a single chatty user can burn the whole quota;
// the limiter keeps one user's traffic from starving everyone else.
package ratelimit

import (
	"sync"
	"time"
)

// Default per-user budget: a handful of model calls per minute is plenty
// for a human typing into a chat.
const (
	DefaultBurst  = 5
	DefaultWindow = time.Minute
)

// Limiter is a per-key token bucket limiter. It never blocks: callers ask
// Allow and degrade gracefully when refused. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	burst   int
	window  time.Duration

	nowFunc func() time.Time // for tests
}

type bucket struct {
	available  float64
	lastRefill time.Time
}

// New creates a limiter granting burst tokens per window for each key.
// Non-positive arguments fall back to the defaults.
func New(burst int, window time.Duration) *Limiter {
	if burst <= 0 {
		burst = DefaultBurst
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		burst:   burst,
		window:  window,
		nowFunc: time.Now,
	}
}

// Allow consumes a token for key if one is available. A fresh key starts
// with a full bucket.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{available: float64(l.burst), lastRefill: now}
		l.buckets[key] = b
	} else {
		l.refill(b, now)
	}

	if b.available >= 1 {
		b.available--
		return true
	}
	return false
}

// Remaining reports the tokens currently available for key.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		return l.burst
	}
	l.refill(b, l.nowFunc())
	return int(b.available)
}

// refill credits tokens proportionally to elapsed time, capped at burst.
// Callers must hold l.mu.
func (l *Limiter) refill(b *bucket, now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed <= 0 {
		return
	}
	b.available += float64(l.burst) * float64(elapsed) / float64(l.window)
	if b.available > float64(l.burst) {
		b.available = float64(l.burst)
	}
	b.lastRefill = now
}
