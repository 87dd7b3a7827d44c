package route

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/roach88/splitkeeper/internal/condition"
	"github.com/roach88/splitkeeper/internal/ir"
)

// InChapter returns a copy of t that only fires inside the given chapter
// and side. t must carry a structured condition.
func InChapter(t *Trigger, chapter, mode int) *Trigger {
	equals := maps.Clone(t.Condition.Equals)
	if equals == nil {
		equals = make(map[string]ir.IRValue, 2)
	}
	equals["chapter"] = ir.IRInt(chapter)
	equals["mode"] = ir.IRInt(mode)
	return NewTrigger(t.Name, condition.Structured(equals, maps.Clone(t.Condition.Below)))
}

// Segment is one split of a single-chapter route and the event that ends
// it. A nil End means the segment ends when the chapter is completed.
type Segment struct {
	Name string
	End  *Trigger
}

// ParseSegment reads a segment argument of the form NAME or NAME:END,
// where END is one of room=ROOM, checkpoint=N, cassette, heart,
// berries=N or complete.
func ParseSegment(arg string) (Segment, error) {
	name, end, found := strings.Cut(arg, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return Segment{}, fmt.Errorf("segment %q: missing name", arg)
	}
	if !found {
		return Segment{Name: name}, nil
	}

	kind, value, _ := strings.Cut(strings.TrimSpace(end), "=")
	number := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("segment %q: %s needs a count, got %q", arg, kind, value)
		}
		return n, nil
	}

	seg := Segment{Name: name}
	switch strings.ToLower(kind) {
	case "complete":
	case "room":
		if value == "" {
			return Segment{}, fmt.Errorf("segment %q: room needs a name", arg)
		}
		seg.End = Room(value)
	case "checkpoint":
		n, err := number()
		if err != nil {
			return Segment{}, err
		}
		seg.End = Checkpoint(n)
	case "berries":
		n, err := number()
		if err != nil {
			return Segment{}, err
		}
		seg.End = Berries(n)
	case "cassette":
		seg.End = Cassette()
	case "heart":
		seg.End = Heart()
	default:
		return Segment{}, fmt.Errorf("segment %q: unknown end %q", arg, kind)
	}
	return seg, nil
}

// SegmentRoute builds a chapter-timed route for one chapter from its
// segments, in order. Every end trigger is restricted to the chapter, and
// the route resets whenever the chapter is restarted.
func SegmentRoute(name, label string, segments []Segment) (*Route, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("segment route needs at least one segment")
	}
	chapter, mode, err := ParseMapName(label)
	if err != nil {
		return nil, err
	}

	pieces := make([]Piece, 0, 2*len(segments))
	for _, seg := range segments {
		end := ChapterFinish(label, chapter, mode)
		if seg.End != nil {
			end = InChapter(seg.End, chapter, mode)
		}
		pieces = append(pieces, end, NewSplit(0, seg.Name))
	}
	return New(name, ChapterTime, pieces, []string{"Segment"}, DefaultReset(ChapterTime, chapter, mode))
}

// RoomRecorder turns a playthrough into a route with one split per room.
// Recording begins at the first snapshot taken inside a chapter and ends
// when that chapter is completed. Each room is split the first time the
// player leaves it for a room not seen before.
type RoomRecorder struct {
	started       bool
	done          bool
	chapter, mode int
	current       string
	seen          map[string]bool
	pieces        []Piece
}

// NewRoomRecorder creates an idle recorder.
func NewRoomRecorder() *RoomRecorder {
	return &RoomRecorder{seen: make(map[string]bool)}
}

// Observe feeds one snapshot and reports whether the chapter has been
// completed. Snapshots from other chapters are ignored.
func (r *RoomRecorder) Observe(snap ir.Snapshot) bool {
	if r.done {
		return true
	}
	chapter, err := snap.Int("chapter")
	if err != nil || chapter < 0 {
		return false
	}
	mode, err := snap.Int("mode")
	if err != nil {
		return false
	}
	room := snap.String("level_name")

	if !r.started {
		if snap.Bool("chapter_complete") || room == "" {
			return false
		}
		r.started = true
		r.chapter, r.mode = int(chapter), int(mode)
		r.current = room
		r.seen[room] = true
		return false
	}
	if int(chapter) != r.chapter || int(mode) != r.mode {
		return false
	}

	if snap.Bool("chapter_complete") {
		label := ChapterName(r.chapter, r.mode)
		r.pieces = append(r.pieces, ChapterFinish(label, r.chapter, r.mode), NewSplit(0, r.current))
		r.done = true
		return true
	}
	if room != "" && !r.seen[room] {
		r.pieces = append(r.pieces, InChapter(Room(room), r.chapter, r.mode), NewSplit(0, r.current))
		r.current = room
		r.seen[room] = true
	}
	return false
}

// Rooms returns the number of completed room splits recorded so far.
func (r *RoomRecorder) Rooms() int {
	return len(r.pieces) / 2
}

// Route returns the recorded route. It fails until the chapter has been
// completed.
func (r *RoomRecorder) Route(name string) (*Route, error) {
	if !r.done {
		return nil, fmt.Errorf("room recording is not finished")
	}
	return New(name, ChapterTime, r.pieces, []string{"Segment"}, DefaultReset(ChapterTime, r.chapter, r.mode))
}
