// Package engine drives a run through a route.
//
// Manager is the traversal state machine: a cursor into the route's
// pieces, the live timing record, and the personal-best and gold records
// it compares against. Runner owns the tick loop around it.
//
// Single writer:
// Only the Runner goroutine calls Manager mutators. Key input, the route
// watcher and other goroutines submit Commands through Runner.Enqueue and
// the runner drains them at the start of each tick. Within a tick the
// order is fixed: drain commands, evaluate the reset trigger, advance the
// cursor until it blocks on an unfired trigger, render.
//
// Published records:
// The personal best and golds are held in atomic pointers and replaced
// wholesale on commit. A reader holding an old pointer keeps a consistent
// record; nothing mutates a published record in place.
//
// Triggers have no timeout. A trigger that never fires leaves the run
// paused at that piece, which is not an error.
package engine
