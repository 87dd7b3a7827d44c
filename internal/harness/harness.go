package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/splitkeeper/internal/autosplitter"
	"github.com/roach88/splitkeeper/internal/compiler"
	"github.com/roach88/splitkeeper/internal/engine"
	"github.com/roach88/splitkeeper/internal/ir"
	"github.com/roach88/splitkeeper/internal/record"
	"github.com/roach88/splitkeeper/internal/testutil"
)

// Harness drives one scenario. It observes the manager to build the
// trace.
type Harness struct {
	clock  *testutil.TickClock
	result *Result
	logger *slog.Logger
}

var _ engine.Observer = (*Harness)(nil)

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Compile the route against the autosplitter field schema
//  2. Seed the snapshot with the scenario's initial fields
//  3. For each tick: set fields, queue the action, run one engine tick
//  4. Commit if requested
//  5. Evaluate assertions against the trace and final state
//
// An error is returned only when the scenario cannot run; failed
// assertions are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	r, err := compiler.Load(scenario.Route, compiler.Options{
		AllowExpressions: scenario.AllowExpressions,
		Fields:           autosplitter.Fields,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load route: %w", err)
	}

	initial, err := toSnapshot(scenario.Initial)
	if err != nil {
		return nil, fmt.Errorf("initial: %w", err)
	}
	src := testutil.NewSource(initial)

	h := &Harness{
		clock:  testutil.NewTickClock(),
		result: NewResult(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	m := engine.New(src, r, nil, nil, engine.WithLogger(h.logger), engine.WithObserver(h))
	rn := engine.NewRunner(m, engine.WithRunnerLogger(h.logger))

	for i, step := range scenario.Ticks {
		fields, err := toSnapshot(step.Set)
		if err != nil {
			return nil, fmt.Errorf("ticks[%d]: %w", i, err)
		}

		var cmd *engine.Command
		if step.Action != "" {
			a, err := engine.ParseAction(step.Action)
			if err != nil {
				return nil, fmt.Errorf("ticks[%d]: %w", i, err)
			}
			cmd = &engine.Command{Action: a, N: step.N}
		}

		for range max(step.Repeat, 1) {
			src.Apply(fields)
			if cmd != nil {
				if err := rn.Enqueue(*cmd); err != nil {
					return nil, fmt.Errorf("ticks[%d]: %w", i, err)
				}
			}
			h.tick(rn)
		}
	}

	if scenario.Commit {
		m.Commit()
	}

	h.result.State = &State{
		Route:        r,
		Cursor:       m.Cursor(),
		Done:         m.Done(),
		Started:      m.Started(),
		Times:        m.Times().Clone(),
		PersonalBest: m.PersonalBest(),
		Golds:        m.Golds(),
	}

	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

// tick runs one engine tick and records a cursor move.
func (h *Harness) tick(rn *engine.Runner) {
	before := rn.Manager().Cursor()
	tick := h.clock.Next()
	rn.Tick()
	if after := rn.Manager().Cursor(); after != before {
		h.result.AddEvent(TraceEvent{Type: EventAdvance, Tick: tick, Cursor: after})
	}
}

func (h *Harness) OnSplit(ev engine.SplitEvent) {
	te := TraceEvent{Type: EventSplit, Tick: h.clock.Current(), Split: ev.Path, Level: ev.Split.Level}
	if t, ok := ev.Time.Get(); ok {
		te.Time = &t
	}
	h.result.AddEvent(te)
}

func (h *Harness) OnCommit(res engine.CommitResult) {
	te := TraceEvent{Type: EventCommit, Tick: h.clock.Current(), PersonalBest: res.PersonalBest}
	for _, k := range res.Golds {
		te.Golds = append(te.Golds, goldLabel(res, k))
	}
	h.result.AddEvent(te)
}

func (h *Harness) OnReset() {
	h.result.AddEvent(TraceEvent{Type: EventReset, Tick: h.clock.Current()})
}

func goldLabel(res engine.CommitResult, k record.Key) string {
	name := k.ID.String()
	if s, ok := res.Route.SplitByID(k.ID); ok {
		name = res.Route.Path(s)
	}
	return fmt.Sprintf("%s@%d", name, k.Level)
}

func toSnapshot(fields map[string]any) (ir.Snapshot, error) {
	snap := make(ir.Snapshot, len(fields))
	for k, v := range fields {
		iv, err := ir.FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		snap[k] = iv
	}
	return snap, nil
}
