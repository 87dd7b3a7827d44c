package harness

import (
	"fmt"
	"strings"

	"github.com/aarondl/opt/null"

	"github.com/roach88/splitkeeper/internal/record"
	"github.com/roach88/splitkeeper/internal/route"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] tick %d %s", i+1, ev.Tick, ev.Type)
		switch ev.Type {
		case EventAdvance:
			fmt.Fprintf(&buf, " -> %d", ev.Cursor)
		case EventSplit:
			fmt.Fprintf(&buf, " %s %s", ev.Split, showTime(ev.Time))
		}
		buf.WriteByte('\n')
	}

	return buf.String()
}

func showTime(t *int64) string {
	if t == nil {
		return NoTime
	}
	return record.FormatTime(*t)
}

func showVal(v null.Val[int64]) string {
	if t, ok := v.Get(); ok {
		return record.FormatTime(t)
	}
	return NoTime
}

func sameTime(a, b null.Val[int64]) bool {
	x, okA := a.Get()
	y, okB := b.Get()
	return okA == okB && x == y
}

// parseExpected converts an assertion time. Validation has already
// checked the syntax.
func parseExpected(s string) null.Val[int64] {
	if s == NoTime {
		return null.Val[int64]{}
	}
	t, err := record.ParseTime(s)
	if err != nil {
		return null.Val[int64]{}
	}
	return null.From(t)
}

func findSplit(r *route.Route, path string) (*route.Split, bool) {
	for _, s := range r.Splits() {
		if r.Path(s) == path {
			return s, true
		}
	}
	return nil, false
}

func assertCursor(result *Result, a Assertion) error {
	if got := result.State.Cursor; got != a.Value {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("cursor %d", a.Value),
			Actual:   fmt.Sprintf("cursor %d", got),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertDone(result *Result, a Assertion) error {
	if !result.State.Done {
		return &AssertionError{
			Type:     a.Type,
			Expected: "run done",
			Actual:   fmt.Sprintf("cursor %d of %d pieces", result.State.Cursor, result.State.Route.Len()),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertSplitTime(result *Result, a Assertion) error {
	st := result.State
	s, ok := findSplit(st.Route, a.Split)
	if !ok {
		return fmt.Errorf("split_time: no split %q in route", a.Split)
	}
	got, ok := st.Times.Get(s.ID)
	if !ok {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s at %s", a.Split, a.Time),
			Actual:   fmt.Sprintf("%s not reached", a.Split),
			Trace:    result.Trace,
		}
	}
	if want := parseExpected(a.Time); !sameTime(got, want) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s at %s", a.Split, showVal(want)),
			Actual:   fmt.Sprintf("%s at %s", a.Split, showVal(got)),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertGold(result *Result, a Assertion) error {
	st := result.State
	s, ok := findSplit(st.Route, a.Split)
	if !ok {
		return fmt.Errorf("gold: no split %q in route", a.Split)
	}
	got, ok := st.Golds.Get(record.Key{ID: s.ID, Level: a.Level})
	if !ok {
		return fmt.Errorf("gold: %s has no subsegment at level %d", a.Split, a.Level)
	}
	if want := parseExpected(a.Time); !sameTime(got, want) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("gold %s@%d = %s", a.Split, a.Level, showVal(want)),
			Actual:   fmt.Sprintf("gold %s@%d = %s", a.Split, a.Level, showVal(got)),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertPersonalBest(result *Result, a Assertion) error {
	st := result.State
	got := st.PersonalBest.Final(st.Route)
	if want := parseExpected(a.Time); !sameTime(got, want) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("personal best %s", showVal(want)),
			Actual:   fmt.Sprintf("personal best %s", showVal(got)),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertEventCount(result *Result, a Assertion) error {
	if got := result.Count(a.Event); got != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d %s events", a.Count, a.Event),
			Actual:   fmt.Sprintf("%d %s events", got, a.Event),
			Trace:    result.Trace,
		}
	}
	return nil
}

// EvaluateAssertions checks every assertion against result and returns
// one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertCursor:
			err = assertCursor(result, a)
		case AssertDone:
			err = assertDone(result, a)
		case AssertSplitTime:
			err = assertSplitTime(result, a)
		case AssertGold:
			err = assertGold(result, a)
		case AssertPersonalBest:
			err = assertPersonalBest(result, a)
		case AssertEventCount:
			err = assertEventCount(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}
