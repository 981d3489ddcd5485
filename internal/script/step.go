// File: internal/script/step.go

// Package script parses and runs YAML interaction scripts on top of the
// retrying interactor.
package script

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xkilldash9x/rp1/internal/interactor"
)

// StepType identifies what a step does.
type StepType string

const (
	StepNavigate       StepType = "navigate"
	StepClick          StepType = "click"
	StepWaitForElement StepType = "waitForElement"
	StepSendKeys       StepType = "sendKeys"
	StepGetValue       StepType = "getValue"
	StepWaitForValue   StepType = "waitForValue"
	StepSleep          StepType = "sleep"
)

func isStepType(key string) bool {
	switch StepType(key) {
	case StepNavigate, StepClick, StepWaitForElement, StepSendKeys,
		StepGetValue, StepWaitForValue, StepSleep:
		return true
	}
	return false
}

// Script is a parsed interaction script.
type Script struct {
	Name       string
	URL        string
	SourcePath string
	Steps      []Step
}

// Step is one instruction. Which fields are set depends on Type.
type Step struct {
	Type     StepType
	Line     int
	URL      string
	Selector string
	Text     string
	Store    string
	Duration time.Duration
	Check    *ValueCheck
}

// Target is the human-readable subject of the step, used in reports.
func (s Step) Target() string {
	switch s.Type {
	case StepNavigate:
		return s.URL
	case StepSleep:
		return fmt.Sprintf("%dms", s.Duration.Milliseconds())
	default:
		return s.Selector
	}
}

// ValueCheck is the condition a waitForValue step waits for. Exactly one
// field is set after parsing.
type ValueCheck struct {
	Equals   *string `yaml:"equals"`
	Contains string  `yaml:"contains"`
	Matches  string  `yaml:"matches"`
	NotEmpty bool    `yaml:"notEmpty"`

	pattern *regexp.Regexp
}

func (c *ValueCheck) compile() error {
	set := 0
	if c.Equals != nil {
		set++
	}
	if c.Contains != "" {
		set++
	}
	if c.Matches != "" {
		set++
		re, err := regexp.Compile(c.Matches)
		if err != nil {
			return fmt.Errorf("invalid matches pattern: %w", err)
		}
		c.pattern = re
	}
	if c.NotEmpty {
		set++
	}
	if set != 1 {
		return fmt.Errorf("waitForValue needs exactly one of equals, contains, matches, notEmpty (got %d)", set)
	}
	return nil
}

// Test returns the predicate for the interactor.
func (c *ValueCheck) Test() interactor.ValueTest {
	switch {
	case c.Equals != nil:
		want := *c.Equals
		return func(v string) bool { return v == want }
	case c.Contains != "":
		sub := c.Contains
		return func(v string) bool { return strings.Contains(v, sub) }
	case c.pattern != nil:
		re := c.pattern
		return re.MatchString
	default:
		return func(v string) bool { return v != "" }
	}
}

func (c *ValueCheck) String() string {
	switch {
	case c.Equals != nil:
		return fmt.Sprintf("equals %q", *c.Equals)
	case c.Contains != "":
		return fmt.Sprintf("contains %q", c.Contains)
	case c.pattern != nil:
		return fmt.Sprintf("matches %q", c.Matches)
	default:
		return "not empty"
	}
}
