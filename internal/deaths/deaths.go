// Package deaths counts deaths per chapter from live snapshots and
// remembers the room each one happened in.
package deaths

import (
	"fmt"
	"strings"

	"github.com/roach88/splitkeeper/internal/ir"
)

// maxStep is the largest death-count increase attributed to the current
// room. Larger jumps (loading another save, a counter reset) resync the
// baseline instead.
const maxStep = 5

// Counter tracks deaths since the last new file was started.
type Counter struct {
	synced   bool
	seen     int64
	chapters []string // first-death order
	rooms    map[string][]string
}

// NewCounter creates a counter. The first observed snapshot sets the
// baseline.
func NewCounter() *Counter {
	return &Counter{rooms: make(map[string][]string)}
}

// Observe feeds one snapshot. Starting a new file clears the counts.
func (c *Counter) Observe(snap ir.Snapshot) {
	count, err := snap.Int("death_count")
	if err != nil {
		return
	}
	chapter, _ := snap.Int("chapter")
	fileTime, _ := snap.Int("file_time")

	if !c.synced || (chapter == 0 && fileTime > 1 && fileTime < 1000) {
		c.Reset(count)
		return
	}

	switch {
	case count <= c.seen:
		c.seen = count
	case count-c.seen >= maxStep:
		c.seen = count
	default:
		name := snap.String("chapter_name")
		room := snap.String("level_name")
		for ; c.seen < count; c.seen++ {
			if _, ok := c.rooms[name]; !ok {
				c.chapters = append(c.chapters, name)
			}
			c.rooms[name] = append(c.rooms[name], room)
		}
	}
}

// Reset clears the counts and takes count as the new baseline.
func (c *Counter) Reset(count int64) {
	c.synced = true
	c.seen = count
	c.chapters = nil
	clear(c.rooms)
}

// Total returns the number of deaths counted.
func (c *Counter) Total() int {
	n := 0
	for _, rooms := range c.rooms {
		n += len(rooms)
	}
	return n
}

// Rooms returns the rooms died in per chapter, in order.
func (c *Counter) Rooms() map[string][]string {
	out := make(map[string][]string, len(c.rooms))
	for name, rooms := range c.rooms {
		out[name] = append([]string(nil), rooms...)
	}
	return out
}

// Format renders one line per chapter listing at most limit rooms. A limit
// of zero or less lists every room.
func (c *Counter) Format(limit int) string {
	var b strings.Builder
	b.WriteString("Deaths:\n\n")
	for _, name := range c.chapters {
		rooms := c.rooms[name]
		shown := rooms
		if limit > 0 && len(rooms) > limit {
			shown = rooms[:limit]
		}
		fmt.Fprintf(&b, "%s: %s", name, strings.Join(shown, ", "))
		if more := len(rooms) - len(shown); more > 0 {
			fmt.Fprintf(&b, " + %d more", more)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
