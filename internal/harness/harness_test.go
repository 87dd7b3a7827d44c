package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nestedRoute has a level-1 checkpoint split inside the Chapter split.
const nestedRoute = `
version: 2
name: Nested
time_field: file_time
level_names: [Chapter, Checkpoint]
pieces:
  - type: start_timer
  - type: trigger
    name: enter
    fields: {chapter: 1}
  - type: split
    name: City
    pieces:
      - type: trigger
        fields: {chapter_checkpoints: 1}
      - type: split
        name: Start
      - type: trigger
        fields: {chapter_complete: true}
      - type: split
        name: Crossing
`

func writeRoute(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "route.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func i64(v int64) *int64 { return &v }

func TestRunNestedRoute(t *testing.T) {
	scenario := &Scenario{
		Name:        "nested",
		Description: "checkpoint then chapter",
		Route:       writeRoute(t, nestedRoute),
		Initial:     map[string]any{"chapter": 0, "file_time": 0, "chapter_checkpoints": 0, "chapter_complete": false},
		Ticks: []TickStep{
			{Set: map[string]any{"chapter": 1, "file_time": 200}},
			{Set: map[string]any{"chapter_checkpoints": 1, "file_time": 3200}},
			{Set: map[string]any{"chapter_complete": true, "file_time": 8200}},
		},
		Commit: true,
		Assertions: []Assertion{
			{Type: AssertDone},
			{Type: AssertSplitTime, Split: "City->Start", Time: "3.000"},
			{Type: AssertGold, Split: "City->Start", Level: 1, Time: "3.000"},
			{Type: AssertGold, Split: "City", Level: 1, Time: "5.000"},
			{Type: AssertGold, Split: "City", Level: 0, Time: "8.000"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	splits := []TraceEvent{}
	for _, ev := range result.Trace {
		if ev.Type == EventSplit {
			splits = append(splits, ev)
		}
	}
	assert.Equal(t, []TraceEvent{
		{Type: EventSplit, Tick: 2, Split: "City->Start", Level: 1, Time: i64(3000)},
		{Type: EventSplit, Tick: 3, Split: "City", Level: 0, Time: i64(8000)},
	}, splits)
}

func TestRunRepeatAndReset(t *testing.T) {
	scenario := &Scenario{
		Name:        "reset",
		Description: "reset command",
		Route:       writeRoute(t, nestedRoute),
		Initial:     map[string]any{"chapter": 1, "file_time": 0, "chapter_checkpoints": 0, "chapter_complete": false},
		Ticks: []TickStep{
			{Set: map[string]any{"file_time": 100}, Repeat: 3},
			{Action: "reset"},
		},
		Assertions: []Assertion{
			{Type: AssertCursor, Value: 2},
			{Type: AssertEventCount, Event: EventCommit, Count: 1},
			{Type: AssertEventCount, Event: EventReset, Count: 1},
			{Type: AssertPersonalBest, Time: NoTime},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, int64(4), result.Trace[len(result.Trace)-1].Tick)
}

func TestRunReportsFailedAssertions(t *testing.T) {
	scenario := &Scenario{
		Name:        "failing",
		Description: "wrong expectations",
		Route:       writeRoute(t, nestedRoute),
		Initial:     map[string]any{"chapter": 0, "file_time": 0},
		Ticks:       []TickStep{{}},
		Assertions: []Assertion{
			{Type: AssertDone},
			{Type: AssertCursor, Value: 4},
			{Type: AssertSplitTime, Split: "City", Time: "1.000"},
			{Type: AssertSplitTime, Split: "Nowhere", Time: "1.000"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "run done")
	assert.Contains(t, result.Errors[1], "cursor 4")
	assert.Contains(t, result.Errors[2], "City not reached")
	assert.Contains(t, result.Errors[3], `no split "Nowhere"`)
}

func TestRunErrors(t *testing.T) {
	_, err := Run(&Scenario{Route: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.ErrorContains(t, err, "failed to load route")

	_, err = Run(&Scenario{
		Route:   writeRoute(t, nestedRoute),
		Initial: map[string]any{"ratio": 0.5},
	})
	assert.ErrorContains(t, err, "initial")
}

func TestAssertionErrorIncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertCursor,
		Expected: "cursor 3",
		Actual:   "cursor 1",
		Trace: []TraceEvent{
			{Type: EventAdvance, Tick: 1, Cursor: 1},
			{Type: EventSplit, Tick: 2, Split: "A"},
		},
	}
	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "Assertion failed: cursor\n"))
	assert.Contains(t, msg, "[1] tick 1 advance -> 1")
	assert.Contains(t, msg, "[2] tick 2 split A -")
}
