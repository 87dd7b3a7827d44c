package testutil

import (
	"maps"
	"sync"

	"github.com/roach88/splitkeeper/internal/ir"
)

// Source is a snapshot source driven by the test. Snapshot returns a copy
// of the fields set so far.
type Source struct {
	mu   sync.Mutex
	snap ir.Snapshot
}

// NewSource returns a source holding initial.
func NewSource(initial ir.Snapshot) *Source {
	s := &Source{snap: make(ir.Snapshot)}
	maps.Copy(s.snap, initial)
	return s
}

// Snapshot returns the current fields.
func (s *Source) Snapshot() ir.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.snap)
}

// Set stores one field.
func (s *Source) Set(field string, v ir.IRValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap[field] = v
}

// SetInt stores an int field.
func (s *Source) SetInt(field string, v int64) {
	s.Set(field, ir.IRInt(v))
}

// SetBool stores a bool field.
func (s *Source) SetBool(field string, v bool) {
	s.Set(field, ir.IRBool(v))
}

// Apply stores every field of fields.
func (s *Source) Apply(fields ir.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.snap, fields)
}
