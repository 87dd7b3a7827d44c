package route

import (
	"fmt"
	"iter"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/roach88/splitkeeper/internal/ir"
)

// PathSeparator joins the names of enclosing splits in a split's path.
const PathSeparator = "->"

// Route is the ordered program of pieces for one kind of run.
//
// A Route is immutable after New except for split display names. The last
// piece is always a level-0 split: every run ends with a whole-run split.
type Route struct {
	Name         string
	TimeField    TimeField
	LevelNames   []string
	ResetTrigger *Trigger // nil when the route has no reset trigger

	pieces []Piece
	splits []*Split
	index  map[uuid.UUID]int // split ID -> piece index
	levels int
}

// Subsegment identifies the segment a split closes at one level.
type Subsegment struct {
	Split *Split
	Level int
}

// New validates pieces and builds a route. Level names are padded so there
// is one per level.
func New(name string, timeField TimeField, pieces []Piece, levelNames []string, reset *Trigger) (*Route, error) {
	if !timeField.Valid() {
		return nil, &ir.FormatError{Message: fmt.Sprintf("unknown time field %q", timeField)}
	}
	if len(pieces) == 0 {
		return nil, &ir.FormatError{Message: "route has no pieces"}
	}
	if last, ok := pieces[len(pieces)-1].(*Split); !ok || last.Level != 0 {
		return nil, &ir.FormatError{Message: "last piece of route must be a level 0 split"}
	}

	r := &Route{
		Name:         ir.NormalizeName(name),
		TimeField:    timeField,
		ResetTrigger: reset,
		pieces:       pieces,
		index:        make(map[uuid.UUID]int),
	}

	for i, p := range pieces {
		switch piece := p.(type) {
		case *Split:
			if piece.Level < 0 {
				return nil, &ir.FormatError{Message: fmt.Sprintf("piece %d: negative split level %d", i, piece.Level)}
			}
			if piece.Name() == "" {
				return nil, &ir.FormatError{Message: fmt.Sprintf("piece %d: split has no name", i)}
			}
			if _, dup := r.index[piece.ID]; dup {
				return nil, &ir.FormatError{Message: fmt.Sprintf("piece %d: duplicate split id %s", i, piece.ID)}
			}
			r.index[piece.ID] = i
			r.splits = append(r.splits, piece)
			r.levels = max(r.levels, piece.Level+1)
		case *Trigger:
			if piece == nil {
				return nil, &ir.FormatError{Message: fmt.Sprintf("piece %d: nil trigger", i)}
			}
		case StartTimer:
		default:
			return nil, &ir.FormatError{Message: fmt.Sprintf("piece %d: unknown piece type %T", i, p)}
		}
	}

	r.LevelNames = padLevelNames(levelNames, r.levels)
	return r, nil
}

func padLevelNames(names []string, levels int) []string {
	out := make([]string, 0, max(levels, len(names)))
	for _, n := range names {
		out = append(out, ir.NormalizeName(n))
	}
	defaults := []string{"Segment", "Subsegment"}
	for i := len(out); i < levels; i++ {
		if i < len(defaults) {
			out = append(out, defaults[i])
		} else {
			out = append(out, fmt.Sprintf("Level %d", i))
		}
	}
	return out
}

// Pieces returns the piece sequence. Callers must not modify it.
func (r *Route) Pieces() []Piece {
	return r.pieces
}

// Len returns the number of pieces.
func (r *Route) Len() int {
	return len(r.pieces)
}

// Piece returns the piece at index i, or nil when i is out of range.
func (r *Route) Piece(i int) Piece {
	if i < 0 || i >= len(r.pieces) {
		return nil
	}
	return r.pieces[i]
}

// Splits returns every split in route order.
func (r *Route) Splits() []*Split {
	return r.splits
}

// FinalSplit returns the last piece, the whole-run split.
func (r *Route) FinalSplit() *Split {
	return r.splits[len(r.splits)-1]
}

// Levels returns the number of nesting levels, 1 + the deepest split level.
func (r *Route) Levels() int {
	return r.levels
}

// LevelName returns the display name of level.
func (r *Route) LevelName(level int) string {
	if level < 0 || level >= len(r.LevelNames) {
		return fmt.Sprintf("Level %d", level)
	}
	return r.LevelNames[level]
}

// IndexOf returns the piece index of split, or -1 when it is not part of
// the route.
func (r *Route) IndexOf(split *Split) int {
	if split == nil {
		return -1
	}
	i, ok := r.index[split.ID]
	if !ok {
		return -1
	}
	return i
}

// SplitByID looks a split up by identity.
func (r *Route) SplitByID(id uuid.UUID) (*Split, bool) {
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return r.pieces[i].(*Split), true
}

// SplitIndex returns the index of the first split at or after from whose
// level is at most level. That split closes the segment in progress at
// from when viewed at level.
func (r *Route) SplitIndex(from, level int) (int, bool) {
	for i := max(from, 0); i < len(r.pieces); i++ {
		if s, ok := r.pieces[i].(*Split); ok && s.Level <= level {
			return i, true
		}
	}
	return 0, false
}

// PreviousSplitIndex returns the index of the last split strictly before
// before whose level is at most level.
func (r *Route) PreviousSplitIndex(before, level int) (int, bool) {
	for i := min(before, len(r.pieces)) - 1; i >= 0; i-- {
		if s, ok := r.pieces[i].(*Split); ok && s.Level <= level {
			return i, true
		}
	}
	return 0, false
}

// AllSubsegments yields, for each split in order, every (split, level) key
// the split concludes. Between consecutive splits A and B it yields
// (B, l) for l from A.Level down to B.Level+1, then (B, B.Level): finishing
// a deep split also closes each shallower segment it was nested in.
func (r *Route) AllSubsegments() iter.Seq[Subsegment] {
	return func(yield func(Subsegment) bool) {
		var prev *Split
		for _, s := range r.splits {
			if prev != nil {
				for lv := prev.Level; lv > s.Level; lv-- {
					if !yield(Subsegment{Split: s, Level: lv}) {
						return
					}
				}
			}
			if !yield(Subsegment{Split: s, Level: s.Level}) {
				return
			}
			prev = s
		}
	}
}

// Path returns the display path of split: the names of the splits that
// close each enclosing segment, joined by PathSeparator.
func (r *Route) Path(split *Split) string {
	idx := r.IndexOf(split)
	if idx < 0 {
		return split.Name()
	}
	parts := make([]string, 0, split.Level+1)
	for lv := 0; lv < split.Level; lv++ {
		if pi, ok := r.SplitIndex(idx, lv); ok {
			name, err := r.pieces[pi].(*Split).LevelName(lv)
			if err == nil {
				parts = append(parts, name)
			}
		}
	}
	parts = append(parts, split.Name())
	return strings.Join(parts, PathSeparator)
}

// SplitNames returns the path of every split, in route order.
func (r *Route) SplitNames() []string {
	return lo.Map(r.splits, func(s *Split, _ int) string {
		return r.Path(s)
	})
}

// Triggers returns every trigger piece in route order.
func (r *Route) Triggers() []*Trigger {
	var out []*Trigger
	for _, p := range r.pieces {
		if t, ok := p.(*Trigger); ok {
			out = append(out, t)
		}
	}
	return out
}

// Hash fingerprints the route structure: pieces, split identities and
// names, trigger conditions, time field and reset trigger.
func (r *Route) Hash() string {
	pieces := make(ir.IRArray, 0, len(r.pieces))
	for _, p := range r.pieces {
		pieces = append(pieces, pieceStructure(p))
	}
	structure := ir.IRObject{
		"name":       ir.IRString(r.Name),
		"time_field": ir.IRString(string(r.TimeField)),
		"pieces":     pieces,
	}
	if r.ResetTrigger != nil {
		structure["reset_trigger"] = pieceStructure(r.ResetTrigger)
	}
	h, err := ir.RouteHash(structure)
	if err != nil {
		// pieceStructure only produces strings, ints and nested values.
		panic(fmt.Sprintf("route hash: %v", err))
	}
	return h
}

func pieceStructure(p Piece) ir.IRValue {
	switch piece := p.(type) {
	case *Split:
		names := make(ir.IRArray, len(piece.Names))
		for i, n := range piece.Names {
			names[i] = ir.IRString(n)
		}
		return ir.IRObject{
			"type":  ir.IRString("split"),
			"id":    ir.IRString(piece.ID.String()),
			"names": names,
			"level": ir.IRInt(piece.Level),
		}
	case *Trigger:
		return ir.IRObject{
			"type":      ir.IRString("trigger"),
			"name":      ir.IRString(piece.Name),
			"condition": ir.IRString(piece.Condition.String()),
		}
	case StartTimer:
		return ir.IRObject{"type": ir.IRString("start_timer")}
	default:
		return ir.IRObject{"type": ir.IRString("unknown")}
	}
}
