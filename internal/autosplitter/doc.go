// Package autosplitter reads the game-state snapshot an external
// autosplitter writes to shared memory.
//
// Layout describes the fixed 176-byte record and Decode turns it into an
// ir.Snapshot with the fields listed in Fields. Poller re-reads the file on
// its own goroutine and publishes each decoded snapshot through an atomic
// pointer, so Snapshot never blocks the engine's tick loop.
package autosplitter
