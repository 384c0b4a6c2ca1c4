// Package ratelimiter implements per-identity token buckets.
package ratelimiter

import (
	"sync"
	"time"
)

const minSweepInterval = 10 * time.Millisecond

type bucket struct {
	tokens float64
	seen   time.Time // last refill, also used for idling out
}

// take refills the bucket up to burst and spends one token if there is one.
func (b *bucket) take(now time.Time, perSecond, burst float64) bool {
	if elapsed := now.Sub(b.seen).Seconds(); elapsed > 0 {
		b.tokens = min(burst, b.tokens+elapsed*perSecond)
	}
	b.seen = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Limiter keeps one bucket per identity (session id, client IP, "global").
// A new identity starts with a full burst. Buckets idle for longer than idleTTL are swept.
type Limiter struct {
	perSecond float64
	burst     float64
	idleTTL   time.Duration
	now       func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

func New(perSecond, burst float64, idleTTL time.Duration) *Limiter {
	return newLimiter(perSecond, burst, idleTTL, time.Now)
}

func newLimiter(perSecond, burst float64, idleTTL time.Duration, now func() time.Time) *Limiter {
	l := &Limiter{
		perSecond: perSecond,
		burst:     burst,
		idleTTL:   idleTTL,
		now:       now,
		buckets:   make(map[string]*bucket),
		stop:      make(chan struct{}),
	}
	go l.sweepLoop(max(idleTTL/2, minSweepInterval))
	return l
}

// PerMinute allows n requests per minute with the given burst.
func PerMinute(n float64, burst int) *Limiter {
	return New(n/60, float64(burst), time.Hour)
}

// Allow reports whether a request from identity may proceed.
func (l *Limiter) Allow(identity string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[identity]
	if !ok {
		b = &bucket{tokens: l.burst, seen: now}
		l.buckets[identity] = b
	}
	return b.take(now, l.perSecond, l.burst)
}

// Len is the number of tracked identities.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop ends the sweeper. Allow keeps working afterwards.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idleTTL)
	removed := 0
	for id, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, id)
			removed++
		}
	}
	return removed
}

func (l *Limiter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}
