package cache

import (
	"sync"
	"time"
)

// breaker is a minimal circuit breaker: after failureThreshold consecutive
// failures it opens for openDuration, then allows exactly one half-open
// probe. Success at any point resets the failure count and closes it.
// The same shape backs both the per-dataset breaker and the global store
// breaker (spec §4.4.2, §4.4.5).
type breaker struct {
	mu              sync.Mutex
	failureCount    int
	openUntil       time.Time
	halfOpenPending bool
}

type breakerDecision int

const (
	breakerAllow breakerDecision = iota
	breakerAllowProbe
	breakerDeny
)

// check reports whether a caller may proceed. If the breaker is open past
// openUntil, exactly one caller is allowed through as a half-open probe;
// concurrent callers during the same window are denied until that probe
// resolves via recordSuccess/recordFailure.
func (b *breaker) check(now time.Time) breakerDecision {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.openUntil.IsZero() || now.After(b.openUntil) {
		if b.failureCount == 0 {
			return breakerAllow
		}
	}
	if !b.openUntil.IsZero() && !now.Before(b.openUntil) && !b.halfOpenPending {
		b.halfOpenPending = true
		return breakerAllowProbe
	}
	if b.openUntil.IsZero() {
		return breakerAllow
	}
	return breakerDeny
}

func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount = 0
	b.openUntil = time.Time{}
	b.halfOpenPending = false
}

// recordFailure increments the failure count and, once threshold consecutive
// failures have accumulated, opens the breaker until now+openDuration.
func (b *breaker) recordFailure(now time.Time, threshold int, openDuration time.Duration) (opened bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failureCount++
	b.halfOpenPending = false
	if b.failureCount >= threshold {
		b.openUntil = now.Add(openDuration)
		return true
	}
	return false
}

func (b *breaker) isOpen(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.openUntil.IsZero() && now.Before(b.openUntil) && !b.halfOpenPending
}
