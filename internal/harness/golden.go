package harness

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/splitkeeper/internal/ir"
)

// canonicalEvent converts ev to a map for canonical JSON. Fields that do
// not apply to the event type are left out.
func canonicalEvent(ev TraceEvent) map[string]any {
	m := map[string]any{
		"type": ev.Type,
		"tick": ev.Tick,
	}
	switch ev.Type {
	case EventAdvance:
		m["cursor"] = ev.Cursor
	case EventSplit:
		m["split"] = ev.Split
		m["level"] = ev.Level
		if ev.Time != nil {
			m["time"] = *ev.Time
		}
	case EventCommit:
		m["personal_best"] = ev.PersonalBest
		golds := make([]any, len(ev.Golds))
		for i, g := range ev.Golds {
			golds[i] = g
		}
		m["golds"] = golds
	}
	return m
}

// MarshalTrace renders a trace as canonical JSON, one line for the
// scenario name and then one line per event.
func MarshalTrace(name string, trace []TraceEvent) ([]byte, error) {
	var buf bytes.Buffer
	head, err := ir.MarshalCanonical(map[string]any{"scenario_name": name})
	if err != nil {
		return nil, err
	}
	buf.Write(head)
	buf.WriteByte('\n')
	for _, ev := range trace {
		line, err := ir.MarshalCanonical(canonicalEvent(ev))
		if err != nil {
			return nil, err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// It returns the result so callers can also check assertions.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result.Trace)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
