package fetch

import "sync"

// FailureGate suppresses a single flaky failure when good data is already
// on screen. It is purely streak-based: there is no time decay.
type FailureGate struct {
	mu     sync.Mutex
	streak int
}

// RecordSuccess resets the failure streak.
func (g *FailureGate) RecordSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.streak = 0
}

// Reset clears the streak, e.g. when the provider is disabled.
func (g *FailureGate) Reset() {
	g.RecordSuccess()
}

// ShouldSurfaceError counts a failure and reports whether the caller should
// show it. Only the first failure after a success is hidden, and only when
// hadPriorData is true.
func (g *FailureGate) ShouldSurfaceError(hadPriorData bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.streak++
	if hadPriorData && g.streak == 1 {
		return false
	}
	return true
}

// restore sets the streak carried over from an earlier run.
func (g *FailureGate) restore(streak int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.streak = max(streak, 0)
}

// Streak returns the current consecutive failure count.
func (g *FailureGate) Streak() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.streak
}
