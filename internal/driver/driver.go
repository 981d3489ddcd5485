// File: internal/driver/driver.go

// Package driver defines the capability set the interactor consumes from a
// browser automation backend, along with the error taxonomy every backend maps
// its failures onto. Backends live in sub-packages (cdp, webdriver); the
// interactor only ever sees this interface.
package driver

import (
	"context"
	"errors"
	"time"
)

// ElementHandle is an opaque reference to a located element. It is only valid
// within the operation call that acquired it and must never be cached, since
// the DOM may change between calls.
type ElementHandle interface{}

// Driver is the fixed capability interface of an automation backend.
type Driver interface {
	// Locate resolves a CSS selector to a single element. It returns an error
	// wrapping ErrNotFound when nothing matches yet.
	Locate(ctx context.Context, selector string) (ElementHandle, error)

	// AwaitVisible returns nil once the element is rendered and visible, or an
	// error wrapping ErrNotVisible.
	AwaitVisible(ctx context.Context, el ElementHandle) error

	// Click dispatches a click on the element.
	Click(ctx context.Context, el ElementHandle) error

	// SendKeys dispatches keyboard input to the element.
	SendKeys(ctx context.Context, el ElementHandle, text string) error

	// GetAttribute reads a named attribute. For "value" backends return the
	// live form value rather than the markup attribute.
	GetAttribute(ctx context.Context, el ElementHandle, name string) (string, error)
}

// Sleeper is the delay primitive used between retry attempts and by the
// interactor's explicit Sleep operation.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

var (
	// ErrNotFound means the selector matched no element.
	ErrNotFound = errors.New("element not found")
	// ErrNotVisible means the element exists but is not rendered or visible.
	ErrNotVisible = errors.New("element not visible")
	// ErrActionFailed means dispatching a click or input failed at the driver level.
	ErrActionFailed = errors.New("action failed")
	// ErrPredicateUnsatisfied means a value test returned false.
	ErrPredicateUnsatisfied = errors.New("the element's value did NOT pass the user defined test function")
	// ErrPredicatePanicked means a value test panicked while being evaluated.
	ErrPredicatePanicked = errors.New("user defined test function panicked")
)
