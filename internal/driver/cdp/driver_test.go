// File: internal/driver/cdp/driver_test.go
package cdp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/rp1/internal/driver"
)

// newStubDriver builds a Driver whose CDP round trips are replaced by runner.
func newStubDriver(t *testing.T, runner func(ctx context.Context, actions ...chromedp.Action) error) *Driver {
	t.Helper()
	return &Driver{
		tabCtx: context.Background(),
		logger: zaptest.NewLogger(t),
		opts:   Options{LocateTimeout: time.Second, VisibilityTimeout: time.Second},
		runner: runner,
	}
}

func stubElement() *element {
	return &element{node: &cdp.Node{NodeID: 7}, selector: "#btn"}
}

func TestNew_RequiresChromedpContext(t *testing.T) {
	_, err := New(context.Background(), nil, Options{})
	assert.ErrorContains(t, err, "does not carry a chromedp browser")
}

func TestLocate(t *testing.T) {
	t.Run("NoNodesIsNotFound", func(t *testing.T) {
		d := newStubDriver(t, func(ctx context.Context, actions ...chromedp.Action) error { return nil })

		_, err := d.Locate(context.Background(), "#missing")
		assert.ErrorIs(t, err, driver.ErrNotFound)
		assert.ErrorContains(t, err, "#missing")
	})

	t.Run("QueryErrorIsNotFound", func(t *testing.T) {
		d := newStubDriver(t, func(ctx context.Context, actions ...chromedp.Action) error {
			return errors.New("could not find node")
		})

		_, err := d.Locate(context.Background(), "#missing")
		assert.ErrorIs(t, err, driver.ErrNotFound)
	})

	t.Run("AppliesLocateTimeout", func(t *testing.T) {
		var deadline time.Time
		d := newStubDriver(t, func(ctx context.Context, actions ...chromedp.Action) error {
			deadline, _ = ctx.Deadline()
			return nil
		})

		_, _ = d.Locate(context.Background(), "#a")
		assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		d := newStubDriver(t, func(ctx context.Context, actions ...chromedp.Action) error { return ctx.Err() })

		_, err := d.Locate(ctx, "#a")
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, driver.ErrNotFound)
	})
}

func TestAwaitVisible(t *testing.T) {
	t.Run("TimeoutIsNotVisible", func(t *testing.T) {
		d := newStubDriver(t, func(ctx context.Context, actions ...chromedp.Action) error {
			return context.DeadlineExceeded
		})

		err := d.AwaitVisible(context.Background(), stubElement())
		assert.ErrorIs(t, err, driver.ErrNotVisible)
	})

	t.Run("Visible", func(t *testing.T) {
		d := newStubDriver(t, func(ctx context.Context, actions ...chromedp.Action) error { return nil })
		assert.NoError(t, d.AwaitVisible(context.Background(), stubElement()))
	})

	t.Run("ForeignHandle", func(t *testing.T) {
		d := newStubDriver(t, func(ctx context.Context, actions ...chromedp.Action) error { return nil })
		err := d.AwaitVisible(context.Background(), "not-a-handle")
		assert.ErrorContains(t, err, "unsupported element handle")
	})
}

func TestActions(t *testing.T) {
	failing := func(ctx context.Context, actions ...chromedp.Action) error { return errors.New("node detached") }

	t.Run("ClickFailureIsActionFailed", func(t *testing.T) {
		d := newStubDriver(t, failing)
		assert.ErrorIs(t, d.Click(context.Background(), stubElement()), driver.ErrActionFailed)
	})

	t.Run("SendKeysFailureIsActionFailed", func(t *testing.T) {
		d := newStubDriver(t, failing)
		assert.ErrorIs(t, d.SendKeys(context.Background(), stubElement(), "abc"), driver.ErrActionFailed)
	})

	t.Run("GetAttributeFailureWrapsCause", func(t *testing.T) {
		d := newStubDriver(t, failing)
		_, err := d.GetAttribute(context.Background(), stubElement(), "value")
		assert.ErrorContains(t, err, "node detached")
	})

	t.Run("NilNodeHandle", func(t *testing.T) {
		d := newStubDriver(t, failing)
		assert.ErrorContains(t, d.Click(context.Background(), &element{selector: "#x"}), "unsupported element handle")
	})
}

func TestCombineContext(t *testing.T) {
	type ctxKey string
	const key ctxKey = "tab"

	t.Run("InheritsValuesFromTab", func(t *testing.T) {
		tab := context.WithValue(context.Background(), key, "value")
		combined, cancel := CombineContext(tab, context.Background())
		defer cancel()

		assert.Equal(t, "value", combined.Value(key))
		assert.NoError(t, combined.Err())
	})

	t.Run("CancelledByOperation", func(t *testing.T) {
		op, cancelOp := context.WithCancel(context.Background())
		combined, cancel := CombineContext(context.Background(), op)
		defer cancel()

		cancelOp()
		assert.Eventually(t, func() bool { return combined.Err() != nil }, time.Second, 5*time.Millisecond)
	})

	t.Run("InheritsOperationDeadline", func(t *testing.T) {
		op, cancelOp := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancelOp()
		combined, cancel := CombineContext(context.Background(), op)
		defer cancel()

		deadline, ok := combined.Deadline()
		require.True(t, ok)
		opDeadline, _ := op.Deadline()
		assert.Equal(t, opDeadline, deadline)

		<-combined.Done()
		assert.ErrorIs(t, combined.Err(), context.DeadlineExceeded)
	})

	t.Run("CancelledByTab", func(t *testing.T) {
		tab, cancelTab := context.WithCancel(context.Background())
		combined, cancel := CombineContext(tab, context.Background())
		defer cancel()

		cancelTab()
		<-combined.Done()
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})
}
