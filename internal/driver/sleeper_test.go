// File: internal/driver/sleeper_test.go
package driver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestRealSleeper(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("WaitsForDuration", func(t *testing.T) {
		start := time.Now()
		err := RealSleeper{}.Sleep(context.Background(), 20*time.Millisecond)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("ZeroDurationReturnsImmediately", func(t *testing.T) {
		assert.NoError(t, RealSleeper{}.Sleep(context.Background(), 0))
	})

	t.Run("CancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		err := RealSleeper{}.Sleep(ctx, time.Hour)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), time.Second)
	})
}
