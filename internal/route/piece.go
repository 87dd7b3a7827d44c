package route

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/splitkeeper/internal/condition"
	"github.com/roach88/splitkeeper/internal/ir"
)

// Piece is the sealed interface for route pieces.
// Only *Split, *Trigger, and StartTimer implement it.
type Piece interface {
	piece()
}

// Split is a named checkpoint that ends a timed segment.
//
// Names holds one display name per nesting level starting at Level; deeper
// levels reuse the last name. Identity is the ID alone: renaming a split
// keeps every record keyed by it.
type Split struct {
	ID    uuid.UUID
	Names []string
	Level int
}

func (*Split) piece() {}

// NewSplit creates a split with a fresh random identity.
func NewSplit(level int, names ...string) *Split {
	return NewSplitWithID(uuid.New(), level, names...)
}

// NewSplitWithID creates a split with a caller-chosen identity.
func NewSplitWithID(id uuid.UUID, level int, names ...string) *Split {
	return &Split{ID: id, Names: normalizeNames(names), Level: level}
}

// Name returns the split's own display name.
func (s *Split) Name() string {
	if len(s.Names) == 0 {
		return ""
	}
	return s.Names[0]
}

// LevelName returns the name shown for s when viewed at level.
// Viewing a split above its own level is an error.
func (s *Split) LevelName(level int) (string, error) {
	if level < s.Level {
		return "", fmt.Errorf("split %q is level %d, cannot name it at level %d", s.Name(), s.Level, level)
	}
	if len(s.Names) == 0 {
		return "", nil
	}
	idx := min(level-s.Level, len(s.Names)-1)
	return s.Names[idx], nil
}

// Rename replaces the display names. The identity is unchanged.
func (s *Split) Rename(names ...string) {
	s.Names = normalizeNames(names)
}

func (s *Split) String() string {
	return fmt.Sprintf("split %q (level %d)", s.Name(), s.Level)
}

func normalizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, ir.NormalizeName(n))
	}
	return out
}

// Trigger gates advancement until its condition holds.
type Trigger struct {
	Name      string
	Condition condition.Condition
}

func (*Trigger) piece() {}

// NewTrigger creates a trigger.
func NewTrigger(name string, c condition.Condition) *Trigger {
	return &Trigger{Name: ir.NormalizeName(name), Condition: c}
}

// Check evaluates the trigger against snap.
func (t *Trigger) Check(snap ir.Snapshot) bool {
	return t.Condition.Eval(snap)
}

func (t *Trigger) String() string {
	return fmt.Sprintf("trigger %q (%s)", t.Name, t.Condition)
}

// StartTimer marks the point where the run clock starts: the time source
// value there becomes the start offset.
type StartTimer struct{}

func (StartTimer) piece() {}

func (StartTimer) String() string {
	return "start timer"
}

// TimeField names the snapshot field used as the run clock.
type TimeField string

const (
	ChapterTime TimeField = "chapter_time"
	FileTime    TimeField = "file_time"
)

// Valid reports whether f is one of the known time fields.
func (f TimeField) Valid() bool {
	return f == ChapterTime || f == FileTime
}
