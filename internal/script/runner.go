// File: internal/script/runner.go
package script

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rp1/internal/interactor"
)

// Interactor is the subset of *interactor.Interactor a script needs.
type Interactor interface {
	Click(ctx context.Context, selector string) error
	WaitForElement(ctx context.Context, selector string) error
	SendKeys(ctx context.Context, selector, text string) error
	GetElementValue(ctx context.Context, selector string) (string, error)
	WaitForElementValueToPassTest(ctx context.Context, selector string, test interactor.ValueTest) error
	Sleep(ctx context.Context, d time.Duration) error
}

var _ Interactor = (*interactor.Interactor)(nil)

// Navigator loads a URL in the browser under test.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// Runner executes scripts step by step.
type Runner struct {
	interactor Interactor
	navigator  Navigator
	logger     *zap.Logger
	backend    string
	now        func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithBackend records the driver backend name in reports.
func WithBackend(name string) RunnerOption {
	return func(r *Runner) { r.backend = name }
}

// WithClock replaces time.Now. Tests only.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner builds a Runner. nav may be nil when scripts never navigate.
func NewRunner(in Interactor, nav Navigator, logger *zap.Logger, opts ...RunnerOption) (*Runner, error) {
	if in == nil {
		return nil, errors.New("script runner: interactor cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		interactor: in,
		navigator:  nav,
		logger:     logger.With(zap.String("component", "ScriptRunner")),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes the script. startURL, when non-empty, overrides the script's
// url. Steps run in order and the first failure skips the rest. The returned
// report is always non-nil; the error is the failing step's error.
func (r *Runner) Run(ctx context.Context, s *Script, startURL string) (*Report, error) {
	steps := s.Steps
	if startURL == "" {
		startURL = s.URL
	}
	if startURL != "" {
		steps = append([]Step{{Type: StepNavigate, URL: startURL}}, steps...)
	}

	report := &Report{
		RunID:     uuid.New().String(),
		Script:    s.Name,
		Source:    s.SourcePath,
		Backend:   r.backend,
		StartedAt: r.now(),
		Steps:     make([]StepResult, 0, len(steps)),
	}
	if report.Script == "" {
		report.Script = s.SourcePath
	}
	logger := r.logger.With(zap.String("run_id", report.RunID), zap.String("script", report.Script))
	logger.Info("Script run starting.", zap.Int("steps", len(steps)))

	values := map[string]string{}
	var runErr error

	for i, step := range steps {
		result := StepResult{Index: i, Type: step.Type, Target: step.Target()}
		if runErr != nil {
			result.Status = StatusSkipped
			report.Steps = append(report.Steps, result)
			continue
		}

		started := r.now()
		value, err := r.execute(ctx, step, values)
		result.DurationMS = r.now().Sub(started).Milliseconds()

		if err != nil {
			result.Status = StatusFailed
			result.Error = err.Error()
			runErr = fmt.Errorf("step %d (%s %s): %w", i, step.Type, step.Target(), err)
			logger.Error("Step failed.", zap.Int("index", i), zap.String("type", string(step.Type)), zap.Error(err))
		} else {
			result.Status = StatusPassed
			result.Value = value
			if step.Store != "" {
				values[step.Store] = value
			}
			logger.Debug("Step passed.", zap.Int("index", i), zap.String("type", string(step.Type)))
		}
		report.Steps = append(report.Steps, result)
	}

	report.FinishedAt = r.now()
	report.DurationMS = report.FinishedAt.Sub(report.StartedAt).Milliseconds()
	if len(values) > 0 {
		report.Values = values
	}
	if runErr != nil {
		report.Status = StatusFailed
		report.Error = runErr.Error()
		logger.Warn("Script run failed.", zap.Error(runErr))
		return report, runErr
	}
	report.Status = StatusPassed
	logger.Info("Script run passed.", zap.Int64("duration_ms", report.DurationMS))
	return report, nil
}

func (r *Runner) execute(ctx context.Context, step Step, values map[string]string) (string, error) {
	switch step.Type {
	case StepNavigate:
		if r.navigator == nil {
			return "", errors.New("no navigator available")
		}
		return "", r.navigator.Navigate(ctx, step.URL)
	case StepClick:
		return "", r.interactor.Click(ctx, step.Selector)
	case StepWaitForElement:
		return "", r.interactor.WaitForElement(ctx, step.Selector)
	case StepSendKeys:
		return "", r.interactor.SendKeys(ctx, step.Selector, expand(step.Text, values))
	case StepGetValue:
		return r.interactor.GetElementValue(ctx, step.Selector)
	case StepWaitForValue:
		if step.Check == nil {
			return "", errors.New("waitForValue step has no check")
		}
		return "", r.interactor.WaitForElementValueToPassTest(ctx, step.Selector, step.Check.Test())
	case StepSleep:
		return "", r.interactor.Sleep(ctx, step.Duration)
	default:
		return "", fmt.Errorf("unknown step type: %s", step.Type)
	}
}

var placeholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expand replaces ${name} with stored values. Unknown names are left as is.
func expand(text string, values map[string]string) string {
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		if v, ok := values[m[2:len(m)-1]]; ok {
			return v
		}
		return m
	})
}
