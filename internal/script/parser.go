// File: internal/script/parser.go
package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ParseError points at the offending line of a script file.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

type rawScript struct {
	Name  string      `yaml:"name"`
	URL   string      `yaml:"url"`
	Steps []yaml.Node `yaml:"steps"`
}

// ParseFile reads and parses a script file.
func ParseFile(path string) (*Script, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is a user-provided script
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return Parse(data, path)
}

// Parse parses script YAML. sourcePath is only used in error messages.
func Parse(data []byte, sourcePath string) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var raw rawScript
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Path: sourcePath, Line: 1, Message: "empty script"}
		}
		return nil, &ParseError{Path: sourcePath, Message: err.Error()}
	}
	if len(raw.Steps) == 0 {
		return nil, &ParseError{Path: sourcePath, Message: "script has no steps"}
	}

	s := &Script{
		Name:       raw.Name,
		URL:        strings.TrimSpace(raw.URL),
		SourcePath: sourcePath,
	}
	for i := range raw.Steps {
		step, err := parseStep(&raw.Steps[i], sourcePath)
		if err != nil {
			return nil, err
		}
		s.Steps = append(s.Steps, step)
	}
	return s, nil
}

func parseStep(node *yaml.Node, sourcePath string) (Step, error) {
	if node.Kind != yaml.MappingNode {
		return Step{}, &ParseError{Path: sourcePath, Line: node.Line, Message: "step must be a mapping"}
	}
	if len(node.Content) != 2 {
		return Step{}, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: fmt.Sprintf("step must have exactly one kind, got %d keys", len(node.Content)/2),
		}
	}

	key, value := node.Content[0].Value, node.Content[1]
	if !isStepType(key) {
		return Step{}, &ParseError{Path: sourcePath, Line: node.Line, Message: fmt.Sprintf("unknown step type: %s", key)}
	}

	step, err := decodeStep(StepType(key), value)
	if err != nil {
		line := value.Line
		var fe *fieldError
		if errors.As(err, &fe) {
			line = fe.line
		}
		return Step{}, wrapParseError(sourcePath, line, err)
	}
	step.Line = node.Line
	return step, nil
}

// stepFields lists the keys each mapping-form step accepts. yaml.Node.Decode
// does not inherit KnownFields from the outer decoder.
var stepFields = map[StepType][]string{
	StepSendKeys:     {"selector", "text"},
	StepGetValue:     {"selector", "store"},
	StepWaitForValue: {"selector", "equals", "contains", "matches", "notEmpty"},
}

type fieldError struct {
	line int
	msg  string
}

func (e *fieldError) Error() string { return e.msg }

// checkFields rejects keys the step kind does not know. Non-mapping values
// are left for Decode to reject.
func checkFields(stepType StepType, value *yaml.Node) error {
	allowed, ok := stepFields[stepType]
	if !ok || value.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i]
		if !slices.Contains(allowed, key.Value) {
			return &fieldError{
				line: key.Line,
				msg:  fmt.Sprintf("%s: unknown field %q (expected one of: %s)", stepType, key.Value, strings.Join(allowed, ", ")),
			}
		}
	}
	return nil
}

func decodeStep(stepType StepType, value *yaml.Node) (Step, error) {
	step := Step{Type: stepType}
	if err := checkFields(stepType, value); err != nil {
		return step, err
	}

	switch stepType {
	case StepNavigate:
		url, err := scalar(value)
		if err != nil {
			return step, err
		}
		step.URL = url

	case StepClick, StepWaitForElement:
		sel, err := scalar(value)
		if err != nil {
			return step, err
		}
		step.Selector = sel

	case StepSendKeys:
		var v struct {
			Selector string `yaml:"selector"`
			Text     string `yaml:"text"`
		}
		if err := value.Decode(&v); err != nil {
			return step, err
		}
		if v.Selector == "" {
			return step, errors.New("sendKeys needs a selector")
		}
		step.Selector, step.Text = v.Selector, v.Text

	case StepGetValue:
		if value.Kind == yaml.ScalarNode {
			step.Selector = value.Value
		} else {
			var v struct {
				Selector string `yaml:"selector"`
				Store    string `yaml:"store"`
			}
			if err := value.Decode(&v); err != nil {
				return step, err
			}
			step.Selector, step.Store = v.Selector, v.Store
		}
		if step.Selector == "" {
			return step, errors.New("getValue needs a selector")
		}

	case StepWaitForValue:
		var v struct {
			Selector   string `yaml:"selector"`
			ValueCheck `yaml:",inline"`
		}
		if err := value.Decode(&v); err != nil {
			return step, err
		}
		if v.Selector == "" {
			return step, errors.New("waitForValue needs a selector")
		}
		check := v.ValueCheck
		if err := check.compile(); err != nil {
			return step, err
		}
		step.Selector, step.Check = v.Selector, &check

	case StepSleep:
		var ms int64
		if err := value.Decode(&ms); err != nil {
			return step, fmt.Errorf("sleep takes milliseconds: %w", err)
		}
		if ms < 0 {
			return step, fmt.Errorf("sleep must not be negative, got %d", ms)
		}
		step.Duration = time.Duration(ms) * time.Millisecond
	}

	return step, nil
}

func scalar(node *yaml.Node) (string, error) {
	if node.Kind != yaml.ScalarNode || strings.TrimSpace(node.Value) == "" {
		return "", errors.New("expected a non-empty string")
	}
	return node.Value, nil
}

func wrapParseError(path string, line int, err error) error {
	return &ParseError{
		Path:    path,
		Line:    line,
		Message: err.Error(),
	}
}
