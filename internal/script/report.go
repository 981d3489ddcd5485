// File: internal/script/report.go
package script

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/json-iterator/go"
)

// Status of a step or a whole run.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Report records the outcome of one script run.
type Report struct {
	RunID      string            `json:"run_id"`
	Script     string            `json:"script"`
	Source     string            `json:"source,omitempty"`
	Backend    string            `json:"backend,omitempty"`
	Status     Status            `json:"status"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	DurationMS int64             `json:"duration_ms"`
	Steps      []StepResult      `json:"steps"`
	Values     map[string]string `json:"values,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// StepResult is the outcome of a single step.
type StepResult struct {
	Index      int      `json:"index"`
	Type       StepType `json:"type"`
	Target     string   `json:"target,omitempty"`
	Status     Status   `json:"status"`
	DurationMS int64    `json:"duration_ms"`
	Value      string   `json:"value,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Passed reports whether every step passed.
func (r *Report) Passed() bool {
	return r.Status == StatusPassed
}

// Summary is a one-line description of the run.
func (r *Report) Summary() string {
	passed := 0
	for _, s := range r.Steps {
		if s.Status == StatusPassed {
			passed++
		}
	}
	return fmt.Sprintf("%s: %s (%d/%d steps passed in %dms)", r.Script, r.Status, passed, len(r.Steps), r.DurationMS)
}

// MarshalIndent encodes the report as indented JSON.
func (r *Report) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// WriteFile writes the report as JSON to path, creating parent directories.
func (r *Report) WriteFile(path string) error {
	data, err := r.MarshalIndent()
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
