package digitengine

import (
	"sync"
	"time"
)

const (
	breakerWindow       = 60 * time.Second
	breakerMinSamples    = 8
	breakerErrorRate     = 0.30
	breakerCooldown      = 60 * time.Second
)

// Breaker is the process-global digit-collection circuit breaker: a
// time-windowed rolling error rate, rather than the consecutive-failure
// counter used elsewhere in this codebase. It only tracks the open/closed
// state: SetExpectation and RequestDigitCollection do not consult it, so an
// open breaker does not change how a new expectation is collected.
//
// Safe for concurrent use.
type Breaker struct {
	mu sync.Mutex

	windowStart time.Time
	attempts    int
	errors      int

	open     bool
	openedAt time.Time
}

// NewBreaker returns a closed Breaker.
func NewBreaker() *Breaker {
	return &Breaker{}
}

// RecordOutcome folds one collection outcome into the rolling window,
// rolling the window over if its duration has elapsed, and opens the
// breaker once the sample and error-rate thresholds are both crossed.
func (b *Breaker) RecordOutcome(accepted bool, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.windowStart.IsZero() || now.Sub(b.windowStart) >= breakerWindow {
		b.windowStart = now
		b.attempts = 0
		b.errors = 0
	}

	b.attempts++
	if !accepted {
		b.errors++
	}

	if b.open {
		return
	}
	if b.attempts >= breakerMinSamples {
		rate := float64(b.errors) / float64(b.attempts)
		if rate >= breakerErrorRate {
			b.open = true
			b.openedAt = now
		}
	}
}

// Open reports whether the breaker is currently tripped. It self-clears
// (closes, resets counters) once the cooldown has elapsed since it opened.
func (b *Breaker) Open(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return false
	}
	if now.Sub(b.openedAt) >= breakerCooldown {
		b.open = false
		b.windowStart = time.Time{}
		b.attempts = 0
		b.errors = 0
		return false
	}
	return true
}

// Reset forces the breaker closed and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
	b.windowStart = time.Time{}
	b.attempts = 0
	b.errors = 0
}
