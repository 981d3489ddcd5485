// File: internal/driver/sleeper.go
package driver

import (
	"context"
	"time"
)

// RealSleeper waits on a timer and returns early with the context's error if
// the context is cancelled first.
type RealSleeper struct{}

var _ Sleeper = RealSleeper{}

// Sleep pauses for d. Non-positive durations return immediately.
func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
