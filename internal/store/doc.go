// Package store keeps the run history in SQLite.
//
// Every committed run that recorded at least one split becomes an attempt:
// the route it ran against, whether it completed, its final time and the
// duration of each subsegment it reached. Averages and counts per
// subsegment are computed from these rows.
//
// # Ordering
//
// Attempts are ordered by seq, the insertion counter, never by wall time.
// Queries that return several rows always carry an ORDER BY so results
// are stable across runs.
//
// # Database Configuration
//
//   - WAL mode: readers (the history command) do not block the tracker
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON: segments are removed with their attempt
package store
