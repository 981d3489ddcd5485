// File: internal/driver/cdp/driver.go

// Package cdp implements driver.Driver on top of the Chrome DevTools Protocol
// using chromedp. The driver is bound to a single chromedp tab context owned by
// the caller; every operation combines that context with the operational
// context it is given so CDP connection values are preserved while the
// caller's deadline still applies.
package cdp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rp1/internal/driver"
)

const (
	// DefaultLocateTimeout bounds a single selector query.
	DefaultLocateTimeout = 5 * time.Second
	// DefaultVisibilityTimeout bounds a single visibility wait.
	DefaultVisibilityTimeout = 5 * time.Second
)

// Options tunes the per-call timeouts of a Driver. The retry loop above the
// driver decides how often a call is repeated; these only cap one attempt.
type Options struct {
	LocateTimeout     time.Duration
	VisibilityTimeout time.Duration
}

// Driver is a chromedp-backed driver.Driver.
type Driver struct {
	tabCtx context.Context
	logger *zap.Logger
	opts   Options
	runner func(ctx context.Context, actions ...chromedp.Action) error
}

var _ driver.Driver = (*Driver)(nil)

// element is the handle type this driver hands out.
type element struct {
	node     *cdp.Node
	selector string
}

// String is used in log fields.
func (e *element) String() string { return e.selector }

// New binds a driver to an existing chromedp tab context.
func New(tabCtx context.Context, logger *zap.Logger, opts Options) (*Driver, error) {
	if tabCtx == nil || chromedp.FromContext(tabCtx) == nil {
		return nil, errors.New("cdp driver: context does not carry a chromedp browser")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.LocateTimeout <= 0 {
		opts.LocateTimeout = DefaultLocateTimeout
	}
	if opts.VisibilityTimeout <= 0 {
		opts.VisibilityTimeout = DefaultVisibilityTimeout
	}
	return &Driver{
		tabCtx: tabCtx,
		logger: logger.With(zap.String("component", "CDPDriver")),
		opts:   opts,
		runner: chromedp.Run,
	}, nil
}

// run executes actions in the tab, bounded by ctx and an optional timeout.
func (d *Driver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(d.tabCtx, ctx)
	defer cancel()
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, timeout)
		defer cancelTimeout()
	}
	return d.runner(runCtx, actions...)
}

// Locate queries the first node matching selector.
func (d *Driver) Locate(ctx context.Context, selector string) (driver.ElementHandle, error) {
	var nodes []*cdp.Node
	err := d.run(ctx, d.opts.LocateTimeout,
		chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0)),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		d.logger.Debug("Selector query failed.", zap.String("selector", selector), zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", driver.ErrNotFound, selector, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", driver.ErrNotFound, selector)
	}
	return &element{node: nodes[0], selector: selector}, nil
}

// AwaitVisible waits, up to the visibility timeout, for the node to render.
func (d *Driver) AwaitVisible(ctx context.Context, el driver.ElementHandle) error {
	e, err := asElement(el)
	if err != nil {
		return err
	}
	err = d.run(ctx, d.opts.VisibilityTimeout,
		chromedp.WaitVisible([]cdp.NodeID{e.node.NodeID}, chromedp.ByNodeID),
	)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", driver.ErrNotVisible, e.selector)
		}
		return fmt.Errorf("%w: %s: %v", driver.ErrNotVisible, e.selector, err)
	}
	return nil
}

// Click dispatches a left mouse click at the node's center.
func (d *Driver) Click(ctx context.Context, el driver.ElementHandle) error {
	e, err := asElement(el)
	if err != nil {
		return err
	}
	if err := d.run(ctx, 0, chromedp.MouseClickNode(e.node)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: click %s: %v", driver.ErrActionFailed, e.selector, err)
	}
	return nil
}

// SendKeys focuses the node and types text into it.
func (d *Driver) SendKeys(ctx context.Context, el driver.ElementHandle, text string) error {
	e, err := asElement(el)
	if err != nil {
		return err
	}
	if err := d.run(ctx, 0, chromedp.SendKeys([]cdp.NodeID{e.node.NodeID}, text, chromedp.ByNodeID)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: send keys to %s: %v", driver.ErrActionFailed, e.selector, err)
	}
	return nil
}

// GetAttribute reads name from the node. "value" is read from the live form
// property, which tracks user input; other names come from the DOM attribute
// and read as "" when absent.
func (d *Driver) GetAttribute(ctx context.Context, el driver.ElementHandle, name string) (string, error) {
	e, err := asElement(el)
	if err != nil {
		return "", err
	}
	ids := []cdp.NodeID{e.node.NodeID}

	var value string
	var action chromedp.Action
	if name == "value" {
		action = chromedp.Value(ids, &value, chromedp.ByNodeID)
	} else {
		var ok bool
		action = chromedp.AttributeValue(ids, name, &value, &ok, chromedp.ByNodeID)
	}

	if err := d.run(ctx, 0, action); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("reading %q of %s: %w", name, e.selector, err)
	}
	return value, nil
}

func asElement(el driver.ElementHandle) (*element, error) {
	e, ok := el.(*element)
	if !ok || e == nil || e.node == nil {
		return nil, fmt.Errorf("cdp driver: unsupported element handle %T", el)
	}
	return e, nil
}
