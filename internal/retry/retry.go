// File: internal/retry/retry.go

// Package retry implements the single fixed-interval retry mechanism shared by
// every interaction operation. An action is attempted until it succeeds or the
// retry budget is spent, at which point the last failure is handed back to
// the caller exactly as the action returned it.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/xkilldash9x/rp1/internal/driver"
)

// Policy describes how an action is retried.
type Policy struct {
	// Interval is the fixed pause between attempts.
	Interval time.Duration
	// MaxRetries is the number of additional attempts after the first.
	// Zero means exactly one attempt.
	MaxRetries int
	// Sleeper performs the pause. When nil the backoff library's own timer is used.
	Sleeper driver.Sleeper
	// Log receives one "Retrying (n/max)..." line per retry. May be nil.
	Log func(msg string)
}

// Message formats the line emitted before the given retry attempt.
func Message(attempt, maxRetries int) string {
	return fmt.Sprintf("Retrying (%d/%d)...", attempt, maxRetries)
}

// Do calls fn until it returns a nil error or the attempt count exceeds
// p.MaxRetries. The final error is returned unchanged, so callers can match
// the driver-level cause with errors.Is or a plain equality check.
//
// The context is handed to every attempt and bounds every pause. If it is
// cancelled while waiting, the loop stops and the last attempt error is
// joined with the context error.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Interval), uint64(maxRetries)),
		ctx,
	)

	var (
		timer   backoff.Timer
		sleeper *sleeperTimer
	)
	if p.Sleeper != nil {
		sleeper = &sleeperTimer{ctx: ctx, sleeper: p.Sleeper}
		timer = sleeper
	}

	attempt := 0
	var lastErr error
	operation := func() (T, error) {
		if sleeper != nil && sleeper.err != nil {
			var zero T
			return zero, backoff.Permanent(errors.Join(lastErr, sleeper.err))
		}
		attempt++
		// The pause has already elapsed when a retry attempt starts.
		if attempt > 1 && p.Log != nil {
			p.Log(Message(attempt-1, p.MaxRetries))
		}
		result, err := fn(ctx)
		lastErr = err
		return result, err
	}

	result, err := backoff.RetryNotifyWithTimerAndData(operation, b, nil, timer)
	if err != nil && lastErr != nil && !errors.Is(err, lastErr) {
		// Cancellation surfaced by the backoff loop itself.
		return result, errors.Join(lastErr, err)
	}
	return result, err
}

// Run is Do for actions that produce no value.
func Run(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// sleeperTimer adapts a driver.Sleeper to backoff.Timer. The pause runs
// synchronously inside Start and the channel is ready once it returns; a
// sleeper error is kept and ends the loop before the next attempt.
type sleeperTimer struct {
	ctx     context.Context
	sleeper driver.Sleeper
	c       chan time.Time
	err     error
}

func (t *sleeperTimer) Start(d time.Duration) {
	t.c = make(chan time.Time, 1)
	t.err = t.sleeper.Sleep(t.ctx, d)
	t.c <- time.Now()
}

func (t *sleeperTimer) Stop() {}

func (t *sleeperTimer) C() <-chan time.Time {
	return t.c
}
