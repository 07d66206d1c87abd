// Package cooldown throttles a recovery action, such as nudging a provider
// CLI into rewriting its credentials, so it runs at most once per cooldown
// window. Success is judged by observing a fingerprint change, never by the
// action's own exit status.
package cooldown

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/joshuadavidthomas/usagebar/internal/logging"
)

const (
	DefaultLongCooldown  = 5 * time.Minute
	DefaultShortCooldown = 20 * time.Second
	DefaultPollInterval  = 250 * time.Millisecond
	DefaultMinWait       = 3 * time.Second
	DefaultMaxWait       = 12 * time.Second
)

// Status is the verdict of one Attempt.
type Status string

const (
	CLIUnavailable     Status = "cli_unavailable"
	SkippedByCooldown  Status = "skipped_by_cooldown"
	AttemptedSucceeded Status = "attempted_succeeded"
	AttemptedFailed    Status = "attempted_failed"
)

// ErrNoChange is the failure reason when the action ran but the
// fingerprint never moved.
var ErrNoChange = errors.New("no credential change observed")

type Result struct {
	Status Status `json:"status"`
	// Reason is set for AttemptedFailed.
	Reason string `json:"reason,omitempty"`
}

// Trigger is the recovery action.
type Trigger interface {
	Available() bool
	Run(ctx context.Context) error
}

// Store persists cooldown state. *config.Settings satisfies it.
type Store interface {
	Int64(key string) (int64, bool, error)
	SetInt64s(values map[string]int64) error
}

// Coordinator gates a single action. The zero durations fall back to the
// package defaults. A Coordinator must not be copied after first use.
type Coordinator struct {
	// Action namespaces the persisted keys.
	Action      string
	Trigger     Trigger
	Fingerprint func() (string, error)
	Store       Store

	LongCooldown  time.Duration
	ShortCooldown time.Duration
	PollInterval  time.Duration
	MinWait       time.Duration
	MaxWait       time.Duration

	mu          sync.Mutex
	loaded      bool
	inFlight    bool
	lastAttempt time.Time
	cooldown    time.Duration
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func (c *Coordinator) lastAttemptKey() string { return c.Action + ".last_attempt_at" }
func (c *Coordinator) cooldownKey() string    { return c.Action + ".cooldown_seconds" }

// Attempt runs the action unless it is unavailable or cooling down, then
// waits up to timeout (clamped to [MinWait, MaxWait]) for the fingerprint
// to change.
func (c *Coordinator) Attempt(ctx context.Context, now time.Time, timeout time.Duration) Result {
	log := logging.FromContext(ctx).With("action", c.Action)

	if c.Trigger == nil || !c.Trigger.Available() {
		log.Debug("recovery action unavailable")
		return Result{Status: CLIUnavailable}
	}

	c.mu.Lock()
	c.loadLocked(ctx)
	if c.inFlight || c.coolingLocked(now) {
		c.mu.Unlock()
		log.Debug("recovery action skipped by cooldown")
		return Result{Status: SkippedByCooldown}
	}
	c.inFlight = true
	c.mu.Unlock()

	before := c.fingerprint(ctx)
	wait := max(orDefault(c.MinWait, DefaultMinWait), min(timeout, orDefault(c.MaxWait, DefaultMaxWait)))
	changed, triggerErr := c.runAndWatch(ctx, before, wait)

	result := Result{Status: AttemptedSucceeded}
	interval := orDefault(c.LongCooldown, DefaultLongCooldown)
	if !changed {
		interval = orDefault(c.ShortCooldown, DefaultShortCooldown)
		reason := ErrNoChange
		if triggerErr != nil {
			reason = triggerErr
		}
		result = Result{Status: AttemptedFailed, Reason: reason.Error()}
	}

	c.mu.Lock()
	c.inFlight = false
	c.lastAttempt = now
	c.cooldown = interval
	c.persistLocked(ctx)
	c.mu.Unlock()

	log.Debug("recovery action attempted", "status", result.Status, "reason", result.Reason, "cooldown", interval)
	return result
}

// runAndWatch starts the trigger and polls the fingerprint alongside it.
// The trigger has exited by the time runAndWatch returns. triggerErr is
// only reported when the trigger finished on its own.
func (c *Coordinator) runAndWatch(ctx context.Context, before string, wait time.Duration) (changed bool, triggerErr error) {
	tctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- c.Trigger.Run(tctx) }()

	exited := false
	collect := func() {
		if exited {
			return
		}
		select {
		case err := <-done:
			exited, triggerErr = true, err
		default:
		}
	}
	defer func() {
		cancel()
		if !exited {
			<-done
		}
	}()

	deadline := time.Now().Add(wait)
	poll := func() (struct{}, error) {
		collect()
		if c.fingerprint(ctx) != before {
			return struct{}{}, nil
		}
		return struct{}{}, ErrNoChange
	}
	_, err := backoff.Retry(ctx, poll,
		backoff.WithBackOff(&backoff.ConstantBackOff{Interval: orDefault(c.PollInterval, DefaultPollInterval)}),
		backoff.WithMaxElapsedTime(wait),
	)
	switch {
	case err == nil:
		return true, triggerErr
	case ctx.Err() != nil:
		return false, context.Cause(ctx)
	}

	// Retry gives up up to one interval early; watch until the deadline.
	select {
	case <-time.After(time.Until(deadline)):
	case <-ctx.Done():
		return false, context.Cause(ctx)
	}
	collect()
	return c.fingerprint(ctx) != before, triggerErr
}

// fingerprint reads the side channel. An unreadable state reads as "".
func (c *Coordinator) fingerprint(ctx context.Context) string {
	if c.Fingerprint == nil {
		return ""
	}
	fp, err := c.Fingerprint()
	if err != nil {
		logging.FromContext(ctx).Debug("fingerprint unreadable", "action", c.Action, "err", err)
		return ""
	}
	return fp
}

// IsInCooldown reports whether an Attempt at now would be skipped.
func (c *Coordinator) IsInCooldown(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(context.Background())
	return c.coolingLocked(now)
}

// CooldownRemainingSeconds returns the whole seconds left in the current
// cooldown, rounded up. ok is false when no cooldown is active.
func (c *Coordinator) CooldownRemainingSeconds(now time.Time) (seconds int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(context.Background())
	if !c.coolingLocked(now) {
		return 0, false
	}
	remaining := c.cooldown - now.Sub(c.lastAttempt)
	return int(math.Ceil(remaining.Seconds())), true
}

func (c *Coordinator) coolingLocked(now time.Time) bool {
	if c.lastAttempt.IsZero() {
		return false
	}
	return now.Sub(c.lastAttempt) < c.cooldown
}

func (c *Coordinator) loadLocked(ctx context.Context) {
	if c.loaded {
		return
	}
	c.loaded = true
	if c.Store == nil {
		return
	}

	log := logging.FromContext(ctx)
	last, ok, err := c.Store.Int64(c.lastAttemptKey())
	if err != nil {
		log.Warn("could not load cooldown state", "action", c.Action, "err", err)
		return
	}
	if !ok {
		return
	}
	c.lastAttempt = time.Unix(last, 0)
	c.cooldown = orDefault(c.LongCooldown, DefaultLongCooldown)
	if secs, ok, err := c.Store.Int64(c.cooldownKey()); err == nil && ok {
		c.cooldown = time.Duration(secs) * time.Second
	}
}

func (c *Coordinator) persistLocked(ctx context.Context) {
	if c.Store == nil {
		return
	}
	err := c.Store.SetInt64s(map[string]int64{
		c.lastAttemptKey(): c.lastAttempt.Unix(),
		c.cooldownKey():    int64(c.cooldown / time.Second),
	})
	if err != nil {
		logging.FromContext(ctx).Warn("could not save cooldown state", "action", c.Action, "err", err)
	}
}
