package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines one harness run: a script, a trip, and a sequence
// of steps with assertions on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario; it is also the golden
	// file name.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Script is the path to the script document, relative to the
	// scenario file unless absolute.
	Script string `yaml:"script"`

	// Title and Timezone are passed through to the created trip.
	Title    string `yaml:"title,omitempty"`
	Timezone string `yaml:"timezone,omitempty"`

	// Start is the trip creation time (RFC3339). Steps advance the
	// clock from here.
	Start string `yaml:"start"`

	// Schedule seeds named schedule entries (name to RFC3339).
	Schedule map[string]string `yaml:"schedule,omitempty"`

	// Steps is the main flow, executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trip state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scenario step. Exactly one of Invoke, Event, or Tick is
// set; Advance may accompany any of them (the clock moves first) or
// stand alone.
type Step struct {
	// Advance moves the clock forward by a duration shorthand
	// ("30s", "10m", "2h") before the step runs.
	Advance string `yaml:"advance,omitempty"`

	// Invoke names an action to invoke, with Params.
	Invoke string         `yaml:"invoke,omitempty"`
	Params map[string]any `yaml:"params,omitempty"`

	// Event names an event type to deliver, with Fields.
	Event  string         `yaml:"event,omitempty"`
	Fields map[string]any `yaml:"fields,omitempty"`

	// Tick runs one scheduler pass at the current clock time.
	Tick bool `yaml:"tick,omitempty"`
}

// Assertion validates the final trip state.
type Assertion struct {
	// Type selects the check:
	// - "context_value": look up Ref in the final context, compare to Value
	// - "history_contains": the named Trigger fired
	// - "message_count": the trip has exactly Count messages
	// - "message_contains": some message matches From/To/Content (subset)
	// - "scheduled_count": Count scheduled actions exist (pending and applied)
	Type string `yaml:"type"`

	Ref     string `yaml:"ref,omitempty"`
	Value   any    `yaml:"value,omitempty"`
	Trigger string `yaml:"trigger,omitempty"`
	Count   int    `yaml:"count,omitempty"`
	From    string `yaml:"from,omitempty"`
	To      string `yaml:"to,omitempty"`
	Content string `yaml:"content,omitempty"`
}

// Assertion type constants.
const (
	AssertContextValue    = "context_value"
	AssertHistoryContains = "history_contains"
	AssertMessageCount    = "message_count"
	AssertMessageContains = "message_contains"
	AssertScheduledCount  = "scheduled_count"
)

// LoadScenario reads and parses a scenario YAML file. The script path
// is resolved relative to the scenario file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Script != "" && !filepath.IsAbs(scenario.Script) {
		scenario.Script = filepath.Join(filepath.Dir(path), scenario.Script)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Script == "" {
		return fmt.Errorf("script is required")
	}
	if _, err := os.Stat(s.Script); os.IsNotExist(err) {
		return fmt.Errorf("script file not found: %s", s.Script)
	}
	if s.Start == "" {
		return fmt.Errorf("start is required")
	}
	if _, err := time.Parse(time.RFC3339, s.Start); err != nil {
		return fmt.Errorf("invalid start timestamp: %v", err)
	}
	for name, raw := range s.Schedule {
		if _, err := time.Parse(time.RFC3339, raw); err != nil {
			return fmt.Errorf("invalid schedule entry %q: %v", name, err)
		}
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		kinds := 0
		if step.Invoke != "" {
			kinds++
		}
		if step.Event != "" {
			kinds++
		}
		if step.Tick {
			kinds++
		}
		if kinds > 1 {
			return fmt.Errorf("steps[%d]: invoke, event, and tick are mutually exclusive", i)
		}
		if kinds == 0 && step.Advance == "" {
			return fmt.Errorf("steps[%d]: one of invoke, event, tick, or advance is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertContextValue:
		if a.Ref == "" {
			return fmt.Errorf("assertions[%d]: ref is required for context_value", index)
		}
	case AssertHistoryContains:
		if a.Trigger == "" {
			return fmt.Errorf("assertions[%d]: trigger is required for history_contains", index)
		}
	case AssertMessageCount, AssertScheduledCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertMessageContains:
		if a.From == "" && a.To == "" && a.Content == "" {
			return fmt.Errorf("assertions[%d]: message_contains needs from, to, or content", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
