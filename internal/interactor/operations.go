// File: internal/interactor/operations.go
package interactor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xkilldash9x/rp1/internal/driver"
	"github.com/xkilldash9x/rp1/internal/retry"
)

// ValueAttribute is the attribute read by the value operations.
const ValueAttribute = "value"

// ValueTest decides whether an element's current value is acceptable.
type ValueTest func(value string) bool

// Click locates the element, waits for it to be visible and clicks it. All
// three sub-steps are retried; a click is treated as safe to repeat.
func (i *Interactor) Click(ctx context.Context, selector string) error {
	log := i.logger(fmt.Sprintf(`click("%s")`, selector))

	el, err := i.locateVisible(ctx, selector, log)
	if err != nil {
		return err
	}

	log("Clicking element...")
	if err := retry.Run(ctx, i.policy(), func(ctx context.Context) error {
		return i.driver.Click(ctx, el)
	}); err != nil {
		return err
	}

	log("Done.")
	return nil
}

// WaitForElement blocks until the element exists and is visible.
func (i *Interactor) WaitForElement(ctx context.Context, selector string) error {
	log := i.logger(fmt.Sprintf(`waitForElement("%s")`, selector))

	if _, err := i.locateVisible(ctx, selector, log); err != nil {
		return err
	}

	log("Done.")
	return nil
}

// SendKeys types text into the element once it is visible. The keystrokes are
// dispatched exactly once.
func (i *Interactor) SendKeys(ctx context.Context, selector, text string) error {
	log := i.logger(fmt.Sprintf(`sendKeys("%s", "%s")`, selector, text))

	el, err := i.locateVisible(ctx, selector, log)
	if err != nil {
		return err
	}

	log("Sending keys...")
	if err := i.driver.SendKeys(ctx, el, text); err != nil {
		return err
	}

	log("Done.")
	return nil
}

// GetElementValue returns the element's "value" exactly as the driver reports it.
func (i *Interactor) GetElementValue(ctx context.Context, selector string) (string, error) {
	log := i.logger(fmt.Sprintf(`getElementValue("%s")`, selector))

	el, err := i.locateVisible(ctx, selector, log)
	if err != nil {
		return "", err
	}

	log("Getting value from element...")
	value, err := i.driver.GetAttribute(ctx, el, ValueAttribute)
	if err != nil {
		return "", err
	}

	log("Done.")
	return value, nil
}

// WaitForElementValueToPassTest waits for the element, then re-reads its value
// until test accepts it. A value the test rejects, or a test that panics,
// counts as a failed attempt.
func (i *Interactor) WaitForElementValueToPassTest(ctx context.Context, selector string, test ValueTest) error {
	if test == nil {
		return errors.New("interactor: value test cannot be nil")
	}
	log := i.logger(fmt.Sprintf(`waitForElementValueToPassTest("%s")`, selector))

	el, err := i.locateVisible(ctx, selector, log)
	if err != nil {
		return err
	}

	log("Waiting until element value passes user defined test function...")
	if err := retry.Run(ctx, i.policy(), func(ctx context.Context) error {
		value, err := i.driver.GetAttribute(ctx, el, ValueAttribute)
		if err != nil {
			return err
		}
		passed, err := evaluate(test, value)
		if err != nil {
			return err
		}
		if !passed {
			return driver.ErrPredicateUnsatisfied
		}
		log("The element's value has passed the user defined test function.")
		return nil
	}); err != nil {
		return err
	}

	log("Done.")
	return nil
}

// Sleep pauses unconditionally for d without touching the driver.
func (i *Interactor) Sleep(ctx context.Context, d time.Duration) error {
	log := i.logger(fmt.Sprintf("sleep(%d)", d.Milliseconds()))

	log("Sleeping...")
	if err := i.sleeper.Sleep(ctx, d); err != nil {
		return err
	}

	log("Done.")
	return nil
}

// locateVisible runs the two sub-steps every element operation starts with.
// Visibility is never awaited unless locating succeeded.
func (i *Interactor) locateVisible(ctx context.Context, selector string, log func(string)) (driver.ElementHandle, error) {
	log("Finding element...")
	el, err := retry.Do(ctx, i.policy(), func(ctx context.Context) (driver.ElementHandle, error) {
		return i.driver.Locate(ctx, selector)
	})
	if err != nil {
		return nil, err
	}

	log("Waiting until element is visible...")
	if err := retry.Run(ctx, i.policy(), func(ctx context.Context) error {
		return i.driver.AwaitVisible(ctx, el)
	}); err != nil {
		return nil, err
	}
	return el, nil
}

// evaluate runs a caller supplied test, converting a panic into an error.
func evaluate(test ValueTest, value string) (passed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			passed = false
			err = fmt.Errorf("%w: %v", driver.ErrPredicatePanicked, r)
		}
	}()
	return test(value), nil
}
