// Package harness runs scripted splitkeeper sessions against real routes.
//
// A scenario names a route document, a starting snapshot and a list of
// ticks. Each tick may change snapshot fields and queue a live control
// action before the engine runs one update, exactly as the tracker does
// at runtime. Every split, commit, reset and cursor move is recorded in a
// trace, which can be checked with assertions and compared against a
// golden file.
//
// # Scenario Format
//
//	name: start_and_finish
//	description: "What this scenario validates"
//	route: ../routes/single.yaml
//	initial: {file_time: 0}
//	ticks:
//	  - set: {file_time: 500}
//	  - action: skip
//	    n: 1
//	  - set: {file_time: 1000}
//	    repeat: 2
//	commit: true
//	assertions:
//	  - type: done
//	  - type: split_time
//	    split: S1
//	    time: "1.000"
//
// The route path is relative to the scenario file. Times in assertions use
// the record notation [h:]m:ss.fff; "-" expects no value.
//
// # Assertion Types
//
//   - cursor: the cursor ends at value
//   - done: the run passed the final piece
//   - split_time: the live record holds time for split
//   - gold: the gold of split at level is time
//   - personal_best: the personal best's final time is time
//   - event_count: the trace holds count events of type event
//
// # Deterministic Testing
//
// Ticks are numbered by testutil.TickClock and the snapshot comes from
// testutil.Source, so the same scenario always yields the same trace.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/start_and_finish.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
package harness
