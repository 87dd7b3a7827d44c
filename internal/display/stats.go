package display

import (
	"github.com/aarondl/opt/null"

	"github.com/roach88/splitkeeper/internal/engine"
	"github.com/roach88/splitkeeper/internal/record"
	"github.com/roach88/splitkeeper/internal/route"
)

// Status places a split relative to the cursor.
type Status int

const (
	// Future splits have not been reached.
	Future Status = iota
	// Present is the split in progress.
	Present
	// Past splits have an entry in the run.
	Past
)

func (s Status) String() string {
	switch s {
	case Present:
		return "present"
	case Past:
		return "past"
	default:
		return "future"
	}
}

// LevelStats are the comparison figures for one split at one level.
// Times are null when there is nothing to compare.
type LevelStats struct {
	Split  *route.Split
	Level  int
	Status Status

	// Segment is the run's time for the segment: live while present,
	// recorded once past.
	Segment null.Val[int64]
	// Total is the run's cumulative time at the split, once past.
	Total null.Val[int64]

	PBSegment null.Val[int64]
	PBTotal   null.Val[int64]
	Gold      null.Val[int64]
}

// Stats computes the figures for split at level from v.
func Stats(v engine.View, split *route.Split, level int) LevelStats {
	st := LevelStats{Split: split, Level: level}

	pb := v.PersonalBest()
	st.PBSegment, _ = pb.SegmentTime(split.ID, level)
	st.PBTotal, _ = pb.Get(split.ID)
	st.Gold, _ = v.Golds().Get(record.Key{ID: split.ID, Level: level})

	switch {
	case v.CurrentSplit(level) == split:
		st.Status = Present
		st.Segment = v.CurrentSegmentTime(level)
	case v.Times().Has(split.ID):
		st.Status = Past
		st.Segment, _ = v.Times().SegmentTime(split.ID, level)
		st.Total, _ = v.Times().Get(split.ID)
	}
	return st
}

// PBDelta is the segment time minus the personal-best segment time.
func (s LevelStats) PBDelta() null.Val[int64] {
	return diff(s.Segment, s.PBSegment)
}

// TotalDiff is the cumulative time minus the personal best's.
func (s LevelStats) TotalDiff() null.Val[int64] {
	return diff(s.Total, s.PBTotal)
}

// Timesave is how much the personal-best segment could still lose to
// the gold.
func (s LevelStats) Timesave() null.Val[int64] {
	return diff(s.PBSegment, s.Gold)
}

// IsGold reports whether the segment beats its gold. Ties do not count.
func (s LevelStats) IsGold() bool {
	cur, ok := s.Segment.Get()
	if !ok {
		return false
	}
	gold, ok := s.Gold.Get()
	return ok && cur < gold
}

// Ahead reports whether the segment is faster than the personal best.
func (s LevelStats) Ahead() bool {
	d, ok := s.PBDelta().Get()
	return ok && d < 0
}

func diff(a, b null.Val[int64]) null.Val[int64] {
	av, ok := a.Get()
	if !ok {
		return null.Val[int64]{}
	}
	bv, ok := b.Get()
	if !ok {
		return null.Val[int64]{}
	}
	return null.From(av - bv)
}
