// Package record holds the timing records a run is compared against.
//
// Times maps split identity to elapsed milliseconds in traversal order and
// serves both the live run and the personal best. Golds maps each
// (split, level) subsegment to its best-ever duration. A null time means
// the split was skipped or not reached.
//
// Records are never mutated once published to the engine's readers: the
// engine clones, modifies the clone, and swaps the pointer.
package record
