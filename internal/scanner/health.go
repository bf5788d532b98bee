// Package scanner - Browser health monitoring with circuit breaker pattern
package scanner

import (
	"sync"
	"time"
)

// CircuitState is the state of a worker's browser breaker.
type CircuitState int

const (
	// CircuitClosed means the browser is healthy, tests proceed normally
	CircuitClosed CircuitState = iota
	// CircuitOpen means navigation keeps failing; the browser needs a relaunch
	CircuitOpen
	// CircuitHalfOpen means the cooldown passed and a relaunch may be tried
	CircuitHalfOpen
)

// String returns a human-readable state name.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "Closed (Healthy)"
	case CircuitOpen:
		return "Open (Unhealthy)"
	case CircuitHalfOpen:
		return "Half-Open (Relaunch)"
	default:
		return "Unknown"
	}
}

// BrowserHealth counts consecutive navigation failures of one worker's
// browser. After threshold failures the circuit opens; once the cooldown
// has passed the worker may relaunch the browser and Reset the breaker.
type BrowserHealth struct {
	mu          sync.RWMutex
	failures    int
	threshold   int
	cooldown    time.Duration
	lastFailure time.Time
	now         func() time.Time
}

// NewBrowserHealth creates a breaker. Non-positive values select
// BreakerThreshold and BreakerCooldown.
func NewBrowserHealth(threshold int, cooldown time.Duration) *BrowserHealth {
	if threshold <= 0 {
		threshold = BreakerThreshold
	}
	if cooldown <= 0 {
		cooldown = BreakerCooldown
	}
	return &BrowserHealth{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// State returns the current circuit breaker state.
func (b *BrowserHealth) State() CircuitState {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.failures < b.threshold {
		return CircuitClosed
	}
	if b.now().Sub(b.lastFailure) >= b.cooldown {
		return CircuitHalfOpen
	}
	return CircuitOpen
}

// RecordFailure records a failed navigation.
func (b *BrowserHealth) RecordFailure() {
	b.mu.Lock()
	b.failures++
	b.lastFailure = b.now()
	b.mu.Unlock()
}

// RecordSuccess clears the consecutive failure count.
func (b *BrowserHealth) RecordSuccess() {
	b.mu.Lock()
	b.failures = 0
	b.mu.Unlock()
}

// Reset closes the circuit after a relaunch.
func (b *BrowserHealth) Reset() {
	b.mu.Lock()
	b.failures = 0
	b.lastFailure = time.Time{}
	b.mu.Unlock()
}

// FailureCount returns the current number of consecutive failures.
func (b *BrowserHealth) FailureCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.failures
}

// Wait returns how long the caller must wait before a relaunch is
// allowed. It is zero unless the circuit is open.
func (b *BrowserHealth) Wait() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.failures < b.threshold {
		return 0
	}
	remaining := b.cooldown - b.now().Sub(b.lastFailure)
	if remaining < 0 {
		return 0
	}
	return remaining
}
