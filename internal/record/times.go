package record

import (
	"fmt"

	"github.com/aarondl/opt/null"
	"github.com/google/uuid"

	"github.com/roach88/splitkeeper/internal/ir"
	"github.com/roach88/splitkeeper/internal/route"
)

// Entry is one split's time in a Times record.
type Entry struct {
	ID    uuid.UUID
	Level int
	Name  string
	Time  null.Val[int64]
}

// Times is an insertion-ordered mapping from split identity to time.
type Times struct {
	entries []Entry
	index   map[uuid.UUID]int
}

// NewTimes returns an empty record.
func NewTimes() *Times {
	return &Times{index: make(map[uuid.UUID]int)}
}

// Len returns the number of entries.
func (t *Times) Len() int {
	return len(t.entries)
}

// Set stores e. An existing entry for e.ID keeps its position.
func (t *Times) Set(e Entry) {
	if i, ok := t.index[e.ID]; ok {
		t.entries[i] = e
		return
	}
	t.index[e.ID] = len(t.entries)
	t.entries = append(t.entries, e)
}

// Record stores time for split s under its display name.
func (t *Times) Record(s *route.Split, name string, time null.Val[int64]) {
	t.Set(Entry{ID: s.ID, Level: s.Level, Name: name, Time: time})
}

// Get returns the time stored for id. The boolean reports whether id has
// an entry at all; a present entry may still hold a null time.
func (t *Times) Get(id uuid.UUID) (null.Val[int64], bool) {
	i, ok := t.index[id]
	if !ok {
		return null.Val[int64]{}, false
	}
	return t.entries[i].Time, true
}

// Has reports whether id has an entry.
func (t *Times) Has(id uuid.UUID) bool {
	_, ok := t.index[id]
	return ok
}

// Delete removes the entry for id and reports whether one existed.
func (t *Times) Delete(id uuid.UUID) bool {
	i, ok := t.index[id]
	if !ok {
		return false
	}
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	delete(t.index, id)
	for j := i; j < len(t.entries); j++ {
		t.index[t.entries[j].ID] = j
	}
	return true
}

// Entries returns a copy of the entries in order.
func (t *Times) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Clone returns an independent copy.
func (t *Times) Clone() *Times {
	c := &Times{
		entries: t.Entries(),
		index:   make(map[uuid.UUID]int, len(t.index)),
	}
	for id, i := range t.index {
		c.index[id] = i
	}
	return c
}

// SegmentTime returns the time at id minus the time at the nearest
// preceding entry whose level is at most level. With no such predecessor
// the raw time is returned. The result is null when either endpoint is
// null. It fails with ir.ErrNotFound when id has no entry.
func (t *Times) SegmentTime(id uuid.UUID, level int) (null.Val[int64], error) {
	i, ok := t.index[id]
	if !ok {
		return null.Val[int64]{}, fmt.Errorf("segment time of split %s: %w", id, ir.ErrNotFound)
	}
	end, ok := t.entries[i].Time.Get()
	if !ok {
		return null.Val[int64]{}, nil
	}
	for j := i - 1; j >= 0; j-- {
		if t.entries[j].Level > level {
			continue
		}
		start, ok := t.entries[j].Time.Get()
		if !ok {
			return null.Val[int64]{}, nil
		}
		return null.From(end - start), nil
	}
	return null.From(end), nil
}

// Resync returns a record with exactly one entry per split of r, in route
// order. Times carry over by split identity; new splits get null.
func (t *Times) Resync(r *route.Route) *Times {
	out := NewTimes()
	for _, s := range r.Splits() {
		time, _ := t.Get(s.ID)
		out.Record(s, r.Path(s), time)
	}
	return out
}

// Final returns the time of r's whole-run split.
func (t *Times) Final(r *route.Route) null.Val[int64] {
	v, _ := t.Get(r.FinalSplit().ID)
	return v
}

// Complete reports whether every split of r has a non-null time.
func (t *Times) Complete(r *route.Route) bool {
	for _, s := range r.Splits() {
		v, _ := t.Get(s.ID)
		if v.IsNull() {
			return false
		}
	}
	return true
}
