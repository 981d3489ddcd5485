// File: internal/driver/webdriver/driver.go

// Package webdriver implements driver.Driver against a W3C WebDriver server
// (geckodriver, chromedriver, Selenium Grid) through tebeka/selenium.
//
// The selenium client has no context support, so the operational context is
// only checked before each round trip.
package webdriver

import (
	"context"
	"errors"
	"fmt"

	"github.com/tebeka/selenium"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rp1/internal/driver"
)

// webElement is the subset of selenium.WebElement this driver uses.
type webElement interface {
	Click() error
	SendKeys(keys string) error
	IsDisplayed() (bool, error)
	GetAttribute(name string) (string, error)
}

// Driver is a selenium-backed driver.Driver.
type Driver struct {
	logger *zap.Logger
	find   func(selector string) (webElement, error)
}

var _ driver.Driver = (*Driver)(nil)

type element struct {
	el       webElement
	selector string
}

// New wraps a live WebDriver session. The session stays owned by the caller.
func New(wd selenium.WebDriver, logger *zap.Logger) (*Driver, error) {
	if wd == nil {
		return nil, errors.New("webdriver driver: session cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		logger: logger.With(zap.String("component", "WebDriver")),
		find: func(selector string) (webElement, error) {
			el, err := wd.FindElement(selenium.ByCSSSelector, selector)
			if err != nil {
				return nil, err
			}
			return el, nil
		},
	}, nil
}

// Locate finds the first element matching the CSS selector.
func (d *Driver) Locate(ctx context.Context, selector string) (driver.ElementHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	el, err := d.find(selector)
	if err != nil {
		d.logger.Debug("FindElement failed.", zap.String("selector", selector), zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", driver.ErrNotFound, selector, err)
	}
	if el == nil {
		return nil, fmt.Errorf("%w: %s", driver.ErrNotFound, selector)
	}
	return &element{el: el, selector: selector}, nil
}

// AwaitVisible checks the element's displayed state once.
func (d *Driver) AwaitVisible(ctx context.Context, h driver.ElementHandle) error {
	e, err := d.prepare(ctx, h)
	if err != nil {
		return err
	}
	shown, err := e.el.IsDisplayed()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", driver.ErrNotVisible, e.selector, err)
	}
	if !shown {
		return fmt.Errorf("%w: %s", driver.ErrNotVisible, e.selector)
	}
	return nil
}

// Click clicks the element.
func (d *Driver) Click(ctx context.Context, h driver.ElementHandle) error {
	e, err := d.prepare(ctx, h)
	if err != nil {
		return err
	}
	if err := e.el.Click(); err != nil {
		return fmt.Errorf("%w: click %s: %v", driver.ErrActionFailed, e.selector, err)
	}
	return nil
}

// SendKeys types text into the element.
func (d *Driver) SendKeys(ctx context.Context, h driver.ElementHandle, text string) error {
	e, err := d.prepare(ctx, h)
	if err != nil {
		return err
	}
	if err := e.el.SendKeys(text); err != nil {
		return fmt.Errorf("%w: send keys to %s: %v", driver.ErrActionFailed, e.selector, err)
	}
	return nil
}

// GetAttribute reads name. WebDriver servers resolve "value" against the
// element's live property, so typed input is reflected.
func (d *Driver) GetAttribute(ctx context.Context, h driver.ElementHandle, name string) (string, error) {
	e, err := d.prepare(ctx, h)
	if err != nil {
		return "", err
	}

	value, err := e.el.GetAttribute(name)
	if err != nil {
		return "", fmt.Errorf("reading %q of %s: %w", name, e.selector, err)
	}
	return value, nil
}

func (d *Driver) prepare(ctx context.Context, h driver.ElementHandle) (*element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, ok := h.(*element)
	if !ok || e == nil || e.el == nil {
		return nil, fmt.Errorf("webdriver driver: unsupported element handle %T", h)
	}
	return e, nil
}
