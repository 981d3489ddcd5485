// File: internal/interactor/interactor.go

// Package interactor provides the RetryingInteractor: high-level element
// interactions (click, type, wait, read value) built as short pipelines of
// sub-steps, each wrapped in the shared fixed-interval retry primitive.
//
// Locating an element and waiting for it to become visible are "not ready yet"
// races and are always retried. Clicking is retried as well. Typing and a
// plain value read are dispatched once so that text is never entered twice.
//
// The interactor never owns the Driver it is given; creating and tearing down
// the browser session is the caller's job.
package interactor

import (
	"errors"
	"fmt"
	"time"

	"github.com/xkilldash9x/rp1/internal/driver"
	"github.com/xkilldash9x/rp1/internal/retry"
)

const (
	// DefaultRetryInterval is the pause between attempts of a sub-step.
	DefaultRetryInterval = 1000 * time.Millisecond
	// DefaultMaxRetries is the number of additional attempts per sub-step.
	DefaultMaxRetries = 60
)

// Config is the immutable configuration of an Interactor.
type Config struct {
	RetryInterval time.Duration
	MaxRetries    int
	LogSink       LogSink
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		RetryInterval: DefaultRetryInterval,
		MaxRetries:    DefaultMaxRetries,
		LogSink:       StdoutSink(),
	}
}

// Option overrides part of the default configuration at construction time.
type Option func(*settings)

type settings struct {
	cfg     Config
	sleeper driver.Sleeper
}

// WithRetrySleepTime sets the pause between attempts.
func WithRetrySleepTime(d time.Duration) Option {
	return func(s *settings) { s.cfg.RetryInterval = d }
}

// WithRetryCount sets the number of retries after the first attempt.
func WithRetryCount(n int) Option {
	return func(s *settings) { s.cfg.MaxRetries = n }
}

// WithLogFunction routes status lines to fn.
func WithLogFunction(fn func(msg string)) Option {
	return func(s *settings) {
		if fn != nil {
			s.cfg.LogSink = LogFunc(fn)
		}
	}
}

// WithLogSink routes status lines to sink.
func WithLogSink(sink LogSink) Option {
	return func(s *settings) {
		if sink != nil {
			s.cfg.LogSink = sink
		}
	}
}

// WithSleeper replaces the delay primitive used for the Sleep operation and
// for the pause between retry attempts, mostly useful in tests.
func WithSleeper(sl driver.Sleeper) Option {
	return func(s *settings) {
		if sl != nil {
			s.sleeper = sl
		}
	}
}

// Interactor wraps a Driver with retrying interaction operations. Calls on a
// single Interactor are expected to be serialized by the caller.
type Interactor struct {
	driver driver.Driver
	cfg    Config
	// sleeper serves Sleep. pause is nil unless a sleeper was injected, in
	// which case retries wait on the backoff timer.
	sleeper driver.Sleeper
	pause   driver.Sleeper
}

// New builds an Interactor around a live driver.
func New(d driver.Driver, opts ...Option) (*Interactor, error) {
	if d == nil {
		return nil, errors.New("interactor: driver cannot be nil")
	}

	s := settings{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&s)
	}

	if s.cfg.RetryInterval <= 0 {
		return nil, fmt.Errorf("interactor: retry interval must be positive, got %v", s.cfg.RetryInterval)
	}
	if s.cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("interactor: retry count must not be negative, got %d", s.cfg.MaxRetries)
	}

	it := &Interactor{driver: d, cfg: s.cfg, sleeper: s.sleeper, pause: s.sleeper}
	if it.sleeper == nil {
		it.sleeper = driver.RealSleeper{}
	}
	return it, nil
}

// Config returns a copy of the interactor's configuration.
func (i *Interactor) Config() Config {
	return i.cfg
}

func (i *Interactor) policy() retry.Policy {
	return retry.Policy{
		Interval:   i.cfg.RetryInterval,
		MaxRetries: i.cfg.MaxRetries,
		Sleeper:    i.pause,
		Log:        i.cfg.LogSink.Log,
	}
}

// logger returns a function that prefixes messages with the operation call.
func (i *Interactor) logger(call string) func(string) {
	return func(msg string) {
		i.cfg.LogSink.Log(call + " - " + msg)
	}
}
