package engine

import "sync/atomic"

// Clock numbers ticks. Each call to Next returns a strictly increasing
// value, so log lines and observer events can be ordered without wall
// clock time.
//
// Safe for concurrent use, though only the runner goroutine advances it.
type Clock struct {
	tick atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next advances the clock and returns the new tick number.
func (c *Clock) Next() int64 {
	return c.tick.Add(1)
}

// Current returns the last tick number without advancing.
func (c *Clock) Current() int64 {
	return c.tick.Load()
}
