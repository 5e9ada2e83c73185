// Package service implements the per-upstream circuit breakers guarding
// proxied calls.
package service

import (
	"math/rand/v2"
	"sync"
	"time"

	proxyDomain "github.com/email-management-platform/backend/gateway/internal/proxy/domain"
)

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// BreakerSettings tunes a circuit breaker. Zero values fall back to the
// defaults.
type BreakerSettings struct {
	// FailureThreshold is the consecutive-failure count that opens the
	// breaker.
	FailureThreshold int
	// Cooldown is the first open period. Each consecutive open period
	// doubles it, up to MaxCooldown.
	Cooldown time.Duration
	// MaxCooldown caps the exponential cooldown growth.
	MaxCooldown time.Duration
}

func (s BreakerSettings) withDefaults() BreakerSettings {
	if s.FailureThreshold <= 0 {
		s.FailureThreshold = 5
	}
	if s.Cooldown <= 0 {
		s.Cooldown = 30 * time.Second
	}
	if s.MaxCooldown < s.Cooldown {
		s.MaxCooldown = 10 * s.Cooldown
	}
	return s
}

// CircuitBreaker guards one upstream. Closed passes calls through and counts
// consecutive failures; at the threshold it opens and rejects calls outright.
// After a jittered cooldown one probe is admitted: probe success closes the
// breaker, probe failure reopens it with a doubled cooldown. Safe for
// concurrent use.
type CircuitBreaker struct {
	mu       sync.Mutex
	settings BreakerSettings

	state               breakerState
	consecutiveFailures int
	cooldown            time.Duration
	// waitUntil is when the current open period ends, or, half-open, when
	// the outstanding probe stops blocking the next one.
	waitUntil time.Time

	now func() time.Time
}

// NewCircuitBreaker creates a closed breaker with the given settings.
func NewCircuitBreaker(settings BreakerSettings) *CircuitBreaker {
	settings = settings.withDefaults()
	return &CircuitBreaker{
		settings: settings,
		cooldown: settings.Cooldown,
		now:      time.Now,
	}
}

// Allow reports whether a call may proceed. probe is true when the call is
// the half-open trial request; its outcome decides whether the breaker
// closes or reopens. A non-nil error means the call must not be attempted.
func (b *CircuitBreaker) Allow() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()

	switch b.state {
	case stateClosed:
		return false, nil

	case stateOpen:
		if now.Before(b.waitUntil) {
			return false, proxyDomain.ErrBreakerOpen
		}
		b.state = stateHalfOpen
		b.waitUntil = now.Add(b.settings.Cooldown)
		return true, nil

	default: // stateHalfOpen
		// One probe per window. A probe that never reports back (its caller
		// vanished mid-flight) stops blocking the next one once the window
		// lapses.
		if now.Before(b.waitUntil) {
			return false, proxyDomain.ErrBreakerOpen
		}
		b.waitUntil = now.Add(b.settings.Cooldown)
		return true, nil
	}
}

// RecordSuccess reports a successful upstream call. It resets the failure
// count and, after a successful probe, closes the breaker and resets the
// cooldown to its base.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures = 0
	if b.state == stateHalfOpen {
		b.state = stateClosed
		b.cooldown = b.settings.Cooldown
	}
}

// RecordFailure reports a failed upstream call. Reaching the threshold while
// closed opens the breaker; a failed probe reopens it with a doubled
// cooldown.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateClosed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.settings.FailureThreshold {
			b.open()
		}

	case stateHalfOpen:
		b.cooldown = min(2*b.cooldown, b.settings.MaxCooldown)
		b.open()

	case stateOpen:
		// A straggler admitted before the breaker opened; already rejected
		// for new calls.
	}
}

// RetryAfter returns how long callers should wait before the breaker may
// admit a call again. Zero when the breaker is closed.
func (b *CircuitBreaker) RetryAfter() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateClosed {
		return 0
	}
	return max(b.waitUntil.Sub(b.now()), 0)
}

// open transitions to the open state for the current cooldown plus jitter,
// so replicas that opened together do not probe together.
func (b *CircuitBreaker) open() {
	b.state = stateOpen
	b.waitUntil = b.now().Add(b.cooldown + jitter(b.cooldown))
}

// jitter returns a random duration up to a quarter of the cooldown.
func jitter(cooldown time.Duration) time.Duration {
	quarter := cooldown / 4
	if quarter <= 0 {
		return 0
	}
	return rand.N(quarter)
}

// BreakerRegistry holds one circuit breaker per upstream, created on first
// use with shared settings.
type BreakerRegistry struct {
	settings BreakerSettings

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewBreakerRegistry creates an empty registry.
func NewBreakerRegistry(settings BreakerSettings) *BreakerRegistry {
	return &BreakerRegistry{
		settings: settings,
		breakers: make(map[string]*CircuitBreaker),
	}
}

// For returns the breaker guarding the named upstream, creating it if
// needed. Calls with the same name always return the same breaker.
func (r *BreakerRegistry) For(upstream string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	breaker, ok := r.breakers[upstream]
	if !ok {
		breaker = NewCircuitBreaker(r.settings)
		r.breakers[upstream] = breaker
	}
	return breaker
}
