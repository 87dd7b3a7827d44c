package record

import (
	"github.com/aarondl/opt/null"
	"github.com/google/uuid"

	"github.com/roach88/splitkeeper/internal/route"
)

// Key names one subsegment: the split that closes it and the level it is
// measured at.
type Key struct {
	ID    uuid.UUID
	Level int
}

// KeyOf returns the key of a route subsegment.
func KeyOf(sub route.Subsegment) Key {
	return Key{ID: sub.Split.ID, Level: sub.Level}
}

// GoldEntry is one subsegment's best time.
type GoldEntry struct {
	Key
	Name string
	Time null.Val[int64]
}

// Golds holds the best-ever duration of each subsegment.
type Golds struct {
	entries []GoldEntry
	index   map[Key]int
}

// NewGolds returns an empty gold record.
func NewGolds() *Golds {
	return &Golds{index: make(map[Key]int)}
}

func (g *Golds) Len() int {
	return len(g.entries)
}

// Get returns the gold for k. The boolean reports whether k has an entry.
func (g *Golds) Get(k Key) (null.Val[int64], bool) {
	i, ok := g.index[k]
	if !ok {
		return null.Val[int64]{}, false
	}
	return g.entries[i].Time, true
}

// Set stores e, keeping the position of an existing entry.
func (g *Golds) Set(e GoldEntry) {
	if i, ok := g.index[e.Key]; ok {
		g.entries[i] = e
		return
	}
	g.index[e.Key] = len(g.entries)
	g.entries = append(g.entries, e)
}

// Improve records d as the gold for k when k has no gold yet or d is
// strictly lower. It reports whether the gold changed; ties never do.
func (g *Golds) Improve(k Key, name string, d int64) bool {
	if cur, ok := g.Get(k); ok {
		if best, ok := cur.Get(); ok && d >= best {
			return false
		}
		if name == "" {
			name = g.entries[g.index[k]].Name
		}
	}
	g.Set(GoldEntry{Key: k, Name: name, Time: null.From(d)})
	return true
}

// Entries returns a copy of the entries in order.
func (g *Golds) Entries() []GoldEntry {
	out := make([]GoldEntry, len(g.entries))
	copy(out, g.entries)
	return out
}

// Clone returns an independent copy.
func (g *Golds) Clone() *Golds {
	c := &Golds{
		entries: g.Entries(),
		index:   make(map[Key]int, len(g.index)),
	}
	for k, i := range g.index {
		c.index[k] = i
	}
	return c
}

// Resync rebuilds the key set from r's subsegments, carrying over values
// whose split identity and level both match.
func (g *Golds) Resync(r *route.Route) *Golds {
	out := NewGolds()
	for sub := range r.AllSubsegments() {
		k := KeyOf(sub)
		v, _ := g.Get(k)
		out.Set(GoldEntry{Key: k, Name: r.Path(sub.Split), Time: v})
	}
	return out
}
