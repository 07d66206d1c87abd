package fetch

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrNoStrategyAvailable means every candidate was unavailable or
	// exhausted.
	ErrNoStrategyAvailable = errors.New("no available fetch strategy")

	// ErrAccountCancelled marks an account whose fan-out task never
	// produced an outcome.
	ErrAccountCancelled = errors.New("account fetch did not complete")
)

// TimeoutError is returned when a strategy loses the race against the
// pipeline timer.
type TimeoutError struct {
	StrategyID string
	// Seconds is the timeout rounded up to whole seconds.
	Seconds int
}

func newTimeoutError(strategyID string, timeout time.Duration) *TimeoutError {
	return &TimeoutError{
		StrategyID: strategyID,
		Seconds:    int(math.Ceil(timeout.Seconds())),
	}
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %ds", e.StrategyID, e.Seconds)
}

// IsTimeout reports whether err is or wraps a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

func noStrategyError(providerID string, lastErr error) error {
	if lastErr == nil {
		return fmt.Errorf("%w for %s", ErrNoStrategyAvailable, providerID)
	}
	return fmt.Errorf("%w for %s: %w", ErrNoStrategyAvailable, providerID, lastErr)
}
