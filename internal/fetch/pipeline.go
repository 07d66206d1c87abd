package fetch

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joshuadavidthomas/usagebar/internal/logging"
)

// Pipeline tries candidate strategies in priority order until one succeeds
// or a failing strategy refuses fallback.
type Pipeline struct {
	// Timeout bounds each strategy's Fetch. Zero disables the race.
	Timeout time.Duration
	Metrics *Metrics
}

// Fetch resolves the candidate list for fc and runs it.
func (p *Pipeline) Fetch(ctx context.Context, providerID string, fc Context, resolve Resolver) Outcome {
	var strategies []Strategy
	if resolve != nil {
		strategies = resolve(fc)
	}
	return p.Run(ctx, providerID, fc, strategies)
}

// Run executes the strategy list once. At most one strategy succeeds per
// run; unavailable strategies are recorded and skipped, and a failed
// strategy is never retried within the same run.
func (p *Pipeline) Run(ctx context.Context, providerID string, fc Context, strategies []Strategy) Outcome {
	ctx = logging.WithFields(ctx, "provider", providerID, "run", uuid.NewString()[:8])
	log := logging.FromContext(ctx)

	outcome := Outcome{ProviderID: providerID, AccountID: fc.AccountID}
	timeout := p.timeoutFor(fc)

	var lastErr error
	for _, s := range strategies {
		if ctx.Err() != nil {
			outcome.Err = fmt.Errorf("fetching %s: %w", providerID, context.Cause(ctx))
			return outcome
		}

		if !s.IsAvailable(ctx, fc) {
			log.Debug("strategy unavailable", "strategy", s.ID(), "kind", s.Kind())
			outcome.Attempts = append(outcome.Attempts, Attempt{StrategyID: s.ID(), Kind: s.Kind()})
			p.Metrics.recordAttempt(ctx, providerID, s, attemptUnavailable, 0)
			continue
		}

		start := time.Now()
		result, err := race(ctx, s, fc, timeout)
		elapsed := time.Since(start)

		if err == nil {
			result.StrategyID = s.ID()
			result.Kind = s.Kind()
			log.Debug("strategy succeeded", "strategy", s.ID(), "elapsed", elapsed)
			outcome.Attempts = append(outcome.Attempts, Attempt{StrategyID: s.ID(), Kind: s.Kind(), WasAvailable: true})
			outcome.Result = &result
			p.Metrics.recordAttempt(ctx, providerID, s, attemptSuccess, elapsed)
			return outcome
		}

		log.Debug("strategy failed", "strategy", s.ID(), "elapsed", elapsed, "err", err)
		outcome.Attempts = append(outcome.Attempts, Attempt{
			StrategyID:   s.ID(),
			Kind:         s.Kind(),
			WasAvailable: true,
			Error:        err.Error(),
		})
		if IsTimeout(err) {
			p.Metrics.recordAttempt(ctx, providerID, s, attemptTimeout, elapsed)
		} else {
			p.Metrics.recordAttempt(ctx, providerID, s, attemptFailure, elapsed)
		}

		if ctx.Err() != nil {
			outcome.Err = fmt.Errorf("fetching %s: %w", providerID, context.Cause(ctx))
			return outcome
		}
		if !s.ShouldFallback(err, fc) {
			outcome.Err = err
			return outcome
		}
		lastErr = err
	}

	outcome.Err = noStrategyError(providerID, lastErr)
	return outcome
}

func (p *Pipeline) timeoutFor(fc Context) time.Duration {
	if fc.Timeout > 0 {
		return fc.Timeout
	}
	return p.Timeout
}

// race runs s.Fetch against a timer. Both sides have returned by the time
// race returns; whichever finishes first wins and the loser is cancelled
// through the shared context. A result that arrives after the timer fired
// is discarded.
func race(ctx context.Context, s Strategy, fc Context, timeout time.Duration) (Result, error) {
	if timeout <= 0 {
		return s.Fetch(ctx, fc)
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(raceCtx)

	const (
		fetchWon int32 = iota + 1
		timerWon
	)
	var (
		result Result
		winner atomic.Int32
	)
	g.Go(func() error {
		r, err := s.Fetch(gctx, fc)
		if err != nil {
			winner.CompareAndSwap(0, fetchWon)
			return err
		}
		if winner.CompareAndSwap(0, fetchWon) {
			result = r
			cancel()
		}
		return nil
	})
	g.Go(func() error {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-timer.C:
			if winner.CompareAndSwap(0, timerWon) {
				return newTimeoutError(s.ID(), timeout)
			}
			return nil
		case <-gctx.Done():
			return nil
		}
	})

	err := g.Wait()
	if winner.Load() == timerWon {
		return Result{}, newTimeoutError(s.ID(), timeout)
	}
	if err != nil {
		return Result{}, err
	}
	return result, nil
}
