package harness

import (
	"github.com/roach88/splitkeeper/internal/record"
	"github.com/roach88/splitkeeper/internal/route"
)

// Trace event types.
const (
	EventAdvance = "advance"
	EventSplit   = "split"
	EventCommit  = "commit"
	EventReset   = "reset"
)

// TraceEvent is one observable change during a scenario.
type TraceEvent struct {
	Type string `json:"type"`
	Tick int64  `json:"tick"`

	// Cursor is the new cursor position (advance).
	Cursor int `json:"cursor"`

	// Split is the display path of the split (split).
	Split string `json:"split,omitempty"`
	Level int    `json:"level"`

	// Time is the recorded time, nil when the split was skipped.
	Time *int64 `json:"time,omitempty"`

	// PersonalBest and Golds report what a commit changed (commit).
	PersonalBest bool     `json:"personal_best,omitempty"`
	Golds        []string `json:"golds,omitempty"`
}

// State is the run after the last tick.
type State struct {
	Route        *route.Route
	Cursor       int
	Done         bool
	Started      bool
	Times        *record.Times
	PersonalBest *record.Times
	Golds        *record.Golds
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	// State is nil until the scenario has run.
	State *State `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEvent appends ev to the trace.
func (r *Result) AddEvent(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

// Count returns the number of trace events of type typ.
func (r *Result) Count(typ string) int {
	n := 0
	for _, ev := range r.Trace {
		if ev.Type == typ {
			n++
		}
	}
	return n
}
