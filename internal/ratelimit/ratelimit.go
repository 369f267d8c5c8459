// Package ratelimit implements in-process token-bucket admission control per
// caller identity. It protects against bursts independently of the quota
// ledger, which tracks business entitlement.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

const (
	// Buckets idle longer than this are removed by the janitor.
	idleEviction = time.Hour
	sweepEvery   = 5 * time.Minute
)

// Decision is the outcome of a Consume call. RetryAfter is only meaningful
// when Allowed is false: the time until enough tokens will have refilled.
type Decision struct {
	Allowed    bool
	Remaining  float64
	RetryAfter time.Duration
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	maxTokens  float64
	refillRate float64

	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

func NewLimiter(maxTokens, refillPerSecond float64) *Limiter {
	l := &Limiter{
		buckets:    make(map[string]*bucket),
		maxTokens:  maxTokens,
		refillRate: refillPerSecond,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	go l.janitor()
	return l
}

func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// Consume refills the identity's bucket lazily and either admits the request
// (decrementing by cost) or rejects it without mutating state.
func (l *Limiter) Consume(identity string, cost float64) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[identity]
	if !ok {
		b = &bucket{tokens: l.maxTokens, lastRefill: now}
		l.buckets[identity] = b
	} else {
		elapsed := now.Sub(b.lastRefill).Seconds()
		if elapsed > 0 {
			b.tokens = math.Min(l.maxTokens, b.tokens+elapsed*l.refillRate)
			b.lastRefill = now
		}
	}

	if b.tokens >= cost {
		b.tokens -= cost
		return Decision{Allowed: true, Remaining: b.tokens}
	}

	retryAfter := time.Duration(0)
	if l.refillRate > 0 {
		retryAfter = time.Duration((cost - b.tokens) / l.refillRate * float64(time.Second))
	}
	return Decision{Allowed: false, Remaining: b.tokens, RetryAfter: retryAfter}
}

func (l *Limiter) MaxTokens() float64 {
	return l.maxTokens
}

func (l *Limiter) janitor() {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.evictIdle(l.now())
		case <-l.stop:
			return
		}
	}
}

// evictIdle drops buckets untouched for over an hour. An evicted identity
// that comes back simply starts from a full bucket, which is the same state
// a fully-refilled bucket would be in.
func (l *Limiter) evictIdle(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for identity, b := range l.buckets {
		if now.Sub(b.lastRefill) > idleEviction {
			delete(l.buckets, identity)
		}
	}
}
