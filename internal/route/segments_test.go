package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/splitkeeper/internal/ir"
)

func inChapter(chapter, mode int, fields ir.Snapshot) ir.Snapshot {
	snap := ir.Snapshot{"chapter": ir.IRInt(chapter), "mode": ir.IRInt(mode)}
	for k, v := range fields {
		snap[k] = v
	}
	return snap
}

func TestInChapter(t *testing.T) {
	room := Room("a-02")
	t1 := InChapter(room, 1, 0)

	assert.Equal(t, "Room a-02", t1.Name)
	assert.True(t, t1.Check(inChapter(1, 0, ir.Snapshot{"level_name": ir.IRString("a-02")})))
	assert.False(t, t1.Check(inChapter(1, 1, ir.Snapshot{"level_name": ir.IRString("a-02")})))
	assert.NotContains(t, room.Condition.Equals, "chapter", "the template is not modified")

	reset := InChapter(DefaultReset(ChapterTime, 3, 0), 4, 0)
	assert.True(t, reset.Check(inChapter(4, 0, ir.Snapshot{"chapter_time": ir.IRInt(10)})))
	assert.False(t, reset.Check(inChapter(4, 0, ir.Snapshot{"chapter_time": ir.IRInt(5000)})))
}

func TestParseSegment(t *testing.T) {
	tests := []struct {
		arg     string
		name    string
		trigger string // "" for chapter completion
		snap    ir.Snapshot
	}{
		{"Crossing", "Crossing", "", nil},
		{"Crossing:complete", "Crossing", "", nil},
		{"Start:room=a-01", "Start", "Room a-01", ir.Snapshot{"level_name": ir.IRString("a-01")}},
		{"Chasm: checkpoint=2", "Chasm", "Reach checkpoint 2", ir.Snapshot{"chapter_checkpoints": ir.IRInt(2)}},
		{"Tape:cassette", "Tape", "Get cassette", ir.Snapshot{"chapter_cassette": ir.IRBool(true)}},
		{"Gem:HEART", "Gem", "Get heart", ir.Snapshot{"chapter_heart": ir.IRBool(true)}},
		{"Fruit:berries=20", "Fruit", "20 berries", ir.Snapshot{"file_strawberries": ir.IRInt(20)}},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			seg, err := ParseSegment(tt.arg)
			require.NoError(t, err)
			assert.Equal(t, tt.name, seg.Name)
			if tt.trigger == "" {
				assert.Nil(t, seg.End)
				return
			}
			require.NotNil(t, seg.End)
			assert.Equal(t, tt.trigger, seg.End.Name)
			assert.True(t, seg.End.Check(tt.snap))
		})
	}

	for _, bad := range []string{"", ":room=a-00", "X:room", "X:room=", "X:checkpoint=two", "X:berries=-1", "X:door"} {
		_, err := ParseSegment(bad)
		assert.Error(t, err, bad)
	}
}

func TestSegmentRoute(t *testing.T) {
	var segments []Segment
	for _, arg := range []string{"Start:room=a-01", "Tape:cassette", "Crossing"} {
		seg, err := ParseSegment(arg)
		require.NoError(t, err)
		segments = append(segments, seg)
	}

	r, err := SegmentRoute("City cassette", "1a", segments)
	require.NoError(t, err)

	assert.Equal(t, ChapterTime, r.TimeField)
	assert.Equal(t, []string{"Start", "Tape", "Crossing"}, r.SplitNames())
	assert.Equal(t, []string{"Segment"}, r.LevelNames)
	require.NotNil(t, r.ResetTrigger)
	assert.True(t, r.ResetTrigger.Check(inChapter(1, 0, ir.Snapshot{"chapter_time": ir.IRInt(0)})))

	tape := r.Piece(2).(*Trigger)
	assert.True(t, tape.Check(inChapter(1, 0, ir.Snapshot{"chapter_cassette": ir.IRBool(true)})))
	assert.False(t, tape.Check(inChapter(2, 0, ir.Snapshot{"chapter_cassette": ir.IRBool(true)})))

	finish := r.Piece(4).(*Trigger)
	assert.Equal(t, "finish 1a", finish.Name)
	assert.True(t, finish.Check(inChapter(1, 0, ir.Snapshot{"chapter_complete": ir.IRBool(true)})))

	_, err = SegmentRoute("empty", "1a", nil)
	assert.Error(t, err)
	_, err = SegmentRoute("bad", "1z", segments)
	assert.Error(t, err)
}

func TestRoomRecorder(t *testing.T) {
	room := func(chapter int, name string) ir.Snapshot {
		return inChapter(chapter, 1, ir.Snapshot{"level_name": ir.IRString(name)})
	}

	rec := NewRoomRecorder()
	assert.False(t, rec.Observe(ir.Snapshot{"chapter": ir.IRInt(-1), "mode": ir.IRInt(0)}), "the map is not a chapter")
	assert.False(t, rec.Observe(room(2, "00")))
	assert.False(t, rec.Observe(room(2, "00")))
	assert.False(t, rec.Observe(room(2, "01")))
	assert.False(t, rec.Observe(room(2, "00")), "returning to a seen room is not a split")
	assert.False(t, rec.Observe(room(3, "x")), "other chapters are ignored")
	assert.False(t, rec.Observe(room(2, "02")))
	assert.Equal(t, 2, rec.Rooms())

	_, err := rec.Route("early")
	require.Error(t, err)

	done := room(2, "02")
	done["chapter_complete"] = ir.IRBool(true)
	assert.True(t, rec.Observe(done))
	assert.True(t, rec.Observe(room(2, "03")), "recording stays finished")

	r, err := rec.Route("Site B rooms")
	require.NoError(t, err)
	assert.Equal(t, ChapterTime, r.TimeField)
	assert.Equal(t, []string{"00", "01", "02"}, r.SplitNames())

	enter := r.Piece(2).(*Trigger)
	assert.Equal(t, "Room 02", enter.Name)
	assert.True(t, enter.Check(room(2, "02")))
	assert.False(t, enter.Check(room(3, "02")))
	assert.Equal(t, "finish 2b", r.Piece(4).(*Trigger).Name)
	assert.True(t, r.ResetTrigger.Check(inChapter(2, 1, ir.Snapshot{"chapter_time": ir.IRInt(0)})))
}
