// Package condition evaluates trigger predicates against game state
// snapshots.
//
// A predicate is a small typed expression tree (Field, Literal, Compare,
// And, Or, Not) built once when a route is loaded and evaluated every tick.
// Two authoring forms compile to the same tree:
//
//   - structured: field = value pairs, plus optional field < bound pairs
//   - expression: a free-form string such as
//     "chapter == 1 and 0 < chapter_time < 1000"
//
// Expressions are only compiled when Options.AllowExpressions is set.
// Evaluation never has side effects and never coerces between types:
// IRInt(1) is not equal to IRBool(true).
package condition
