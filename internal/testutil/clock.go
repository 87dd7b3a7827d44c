package testutil

import "sync"

// TickClock numbers ticks for scripted runs.
//
// Unlike engine.Clock it can be reset, so one scenario replays with the
// same tick numbers every time. Safe for concurrent use.
type TickClock struct {
	mu   sync.Mutex
	tick int64
}

// NewTickClock returns a clock whose first Next() is 1.
func NewTickClock() *TickClock {
	return &TickClock{}
}

// Next advances and returns the tick number.
func (c *TickClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick++
	return c.tick
}

// Current returns the last tick number without advancing.
func (c *TickClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick
}

// Reset rewinds the clock to 0.
func (c *TickClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick = 0
}
