package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/splitkeeper/internal/engine"
	"github.com/roach88/splitkeeper/internal/record"
)

// Scenario defines a scripted session.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Route is the path of the route document. LoadScenario resolves it
	// relative to the scenario file.
	Route string `yaml:"route"`

	// AllowExpressions permits expression triggers in the route.
	AllowExpressions bool `yaml:"allow_expressions,omitempty"`

	// Initial is the snapshot before the first tick.
	Initial map[string]any `yaml:"initial,omitempty"`

	// Ticks are run in order.
	Ticks []TickStep `yaml:"ticks"`

	// Commit folds the run into the records after the last tick, as
	// quitting the tracker does.
	Commit bool `yaml:"commit,omitempty"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// TickStep is one engine tick, optionally repeated.
type TickStep struct {
	// Set updates snapshot fields before the tick.
	Set map[string]any `yaml:"set,omitempty"`

	// Action queues a live control action (skip, rewind or reset) for the
	// tick.
	Action string `yaml:"action,omitempty"`

	// N is the action count. Zero means 1.
	N int `yaml:"n,omitempty"`

	// Repeat runs the step this many times. Zero means once.
	Repeat int `yaml:"repeat,omitempty"`
}

// Assertion validates the final trace or state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Split is a split display path (split_time, gold).
	Split string `yaml:"split,omitempty"`

	// Level is the subsegment level (gold).
	Level int `yaml:"level,omitempty"`

	// Time is the expected time; "-" expects no value.
	Time string `yaml:"time,omitempty"`

	// Value is the expected cursor (cursor).
	Value int `yaml:"value,omitempty"`

	// Event and Count are the event type and its expected count
	// (event_count).
	Event string `yaml:"event,omitempty"`
	Count int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertCursor       = "cursor"
	AssertDone         = "done"
	AssertSplitTime    = "split_time"
	AssertGold         = "gold"
	AssertPersonalBest = "personal_best"
	AssertEventCount   = "event_count"
)

// NoTime is the assertion time meaning "no value".
const NoTime = "-"

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly. The route path is resolved relative to
// the scenario file.
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

	if scenario.Route != "" && !filepath.IsAbs(scenario.Route) {
		scenario.Route = filepath.Join(filepath.Dir(path), scenario.Route)
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

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Route == "" {
		return fmt.Errorf("route is required")
	}
	if _, err := os.Stat(s.Route); os.IsNotExist(err) {
		return fmt.Errorf("route file not found: %s", s.Route)
	}

	if len(s.Ticks) == 0 {
		return fmt.Errorf("ticks list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Ticks {
		if step.N < 0 {
			return fmt.Errorf("ticks[%d]: n must be non-negative", i)
		}
		if step.Repeat < 0 {
			return fmt.Errorf("ticks[%d]: repeat must be non-negative", i)
		}
		if step.Action == "" {
			continue
		}
		a, err := engine.ParseAction(step.Action)
		if err != nil {
			return fmt.Errorf("ticks[%d]: %w", i, err)
		}
		if a == engine.ActionReload {
			return fmt.Errorf("ticks[%d]: reload is not supported in scenarios", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCursor, AssertDone:
	case AssertSplitTime, AssertGold:
		if a.Split == "" {
			return fmt.Errorf("assertions[%d]: split is required for %s", index, a.Type)
		}
		if err := checkTime(a.Time); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertPersonalBest:
		if err := checkTime(a.Time); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertEventCount:
		switch a.Event {
		case EventAdvance, EventSplit, EventCommit, EventReset:
		default:
			return fmt.Errorf("assertions[%d]: unknown event type %q for event_count", index, a.Event)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func checkTime(s string) error {
	if s == "" {
		return fmt.Errorf("time is required (use %q for no value)", NoTime)
	}
	if s == NoTime {
		return nil
	}
	_, err := record.ParseTime(s)
	return err
}
