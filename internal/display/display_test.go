package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aarondl/opt/null"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/splitkeeper/internal/engine"
	"github.com/roach88/splitkeeper/internal/ir"
	"github.com/roach88/splitkeeper/internal/record"
	"github.com/roach88/splitkeeper/internal/route"
	"github.com/roach88/splitkeeper/internal/testutil"
)

type cityRun struct {
	route                       *route.Route
	start, crossing, city, site *route.Split
	src                         *testutil.Source
	m                           *engine.Manager
}

// newCityRun builds a two-level route with a personal best and golds:
//
//	City (Start, Crossing, Chasm), Site
func newCityRun(t *testing.T) *cityRun {
	t.Helper()
	c := &cityRun{
		start:    route.NewSplit(1, "Start"),
		crossing: route.NewSplit(1, "Crossing"),
		city:     route.NewSplit(0, "City", "Chasm"),
		site:     route.NewSplit(0, "Site"),
	}
	c.route = testutil.Route(t,
		route.StartTimer{},
		testutil.AtLeast("first checkpoint", "chapter_checkpoints", 1),
		c.start,
		testutil.AtLeast("second checkpoint", "chapter_checkpoints", 2),
		c.crossing,
		testutil.When("complete", "chapter_complete", ir.IRBool(true)),
		c.city,
		testutil.When("next chapter", "chapter", ir.IRInt(2)),
		c.site,
	)

	pb := record.NewTimes()
	for s, ms := range map[*route.Split]int64{c.start: 10000, c.crossing: 25000, c.city: 40000, c.site: 70000} {
		pb.Record(s, s.Name(), null.From(ms))
	}
	golds := record.NewGolds()
	for k, ms := range map[record.Key]int64{
		{ID: c.start.ID, Level: 1}:    9000,
		{ID: c.crossing.ID, Level: 1}: 14000,
		{ID: c.city.ID, Level: 1}:     15000,
		{ID: c.city.ID, Level: 0}:     38000,
		{ID: c.site.ID, Level: 0}:     29000,
	} {
		golds.Set(record.GoldEntry{Key: k, Time: null.From(ms)})
	}

	c.src = testutil.NewSource(ir.Snapshot{
		"chapter":             ir.IRInt(1),
		"chapter_checkpoints": ir.IRInt(0),
		"chapter_complete":    ir.IRBool(false),
		"file_time":           ir.IRInt(0),
	})
	c.m = engine.New(c.src, c.route, pb, golds)
	c.m.Update()
	return c
}

func (c *cityRun) step(fields ir.Snapshot) {
	c.src.Apply(fields)
	c.m.Update()
}

// midRun splits Start at 9.5s and leaves the clock at 20s.
func (c *cityRun) midRun() {
	c.step(ir.Snapshot{"chapter_checkpoints": ir.IRInt(1), "file_time": ir.IRInt(9500)})
	c.src.SetInt("file_time", 20000)
}

func (c *cityRun) finish() {
	c.midRun()
	c.step(ir.Snapshot{"chapter_checkpoints": ir.IRInt(2), "file_time": ir.IRInt(23000)})
	c.step(ir.Snapshot{"chapter_complete": ir.IRBool(true), "file_time": ir.IRInt(37000)})
	c.step(ir.Snapshot{"chapter": ir.IRInt(2), "file_time": ir.IRInt(66000)})
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestRows(t *testing.T) {
	c := newCityRun(t)
	assert.Equal(t, []Row{
		{Split: c.city, Level: 0},
		{Split: c.start, Level: 1},
		{Split: c.crossing, Level: 1},
		{Split: c.city, Level: 1},
		{Split: c.site, Level: 0},
	}, Rows(c.route))
}

func TestWindow(t *testing.T) {
	rows := []Row{{Level: 0}, {Level: 1}, {Level: 2}, {Level: 3}, {Level: 4}}
	levels := func(rs []Row) []int {
		out := make([]int, len(rs))
		for i, r := range rs {
			out[i] = r.Level
		}
		return out
	}

	assert.Equal(t, []int{1, 2, 4}, levels(Window(rows, 2, 3)))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, levels(Window(rows, 2, 0)))
	assert.Equal(t, []int{0, 1, 2, 4}, levels(Window(rows, 0, 4)), "upcoming rows fill in after the current one")
	assert.Equal(t, []int{4}, levels(Window(rows, 4, 1)))

	padded := Window(rows[:2], 0, 4)
	require.Len(t, padded, 4)
	assert.Nil(t, padded[1].Split)
	assert.Nil(t, padded[2].Split)
}

func TestStatsMidRun(t *testing.T) {
	c := newCityRun(t)
	c.midRun()

	st := Stats(c.m, c.start, 1)
	assert.Equal(t, Past, st.Status)
	assert.Equal(t, null.From(int64(9500)), st.Segment)
	assert.Equal(t, null.From(int64(-500)), st.PBDelta())
	assert.Equal(t, null.From(int64(1000)), st.Timesave())
	assert.True(t, st.Ahead())
	assert.False(t, st.IsGold())

	st = Stats(c.m, c.crossing, 1)
	assert.Equal(t, Present, st.Status)
	assert.Equal(t, null.From(int64(10500)), st.Segment)
	assert.Equal(t, null.From(int64(15000)), st.PBSegment)

	st = Stats(c.m, c.site, 0)
	assert.Equal(t, Future, st.Status)
	assert.True(t, st.Segment.IsNull())
	assert.True(t, st.TotalDiff().IsNull())
}

func TestLineTones(t *testing.T) {
	c := newCityRun(t)
	c.finish()
	require.True(t, c.m.Done())

	lines := Lines(c.m, 0)
	require.Len(t, lines, 5)
	assert.Equal(t, Gold, lines[0].Segment.Tone, "37.0 beats the 38.0 gold")
	assert.Equal(t, Ahead, lines[0].Total.Tone)
	assert.Equal(t, Ahead, lines[1].Segment.Tone)
	assert.Equal(t, Ahead, lines[4].Segment.Tone, "tying a gold is not a gold")
}

func TestFormatGolden(t *testing.T) {
	g := golden(t)

	c := newCityRun(t)
	c.midRun()
	g.Assert(t, "mid_run", []byte(Format(c.m, 0)))
	g.Assert(t, "mid_run_window", []byte(Format(c.m, 3)))

	c = newCityRun(t)
	c.finish()
	g.Assert(t, "finished", []byte(Format(c.m, 0)))
}

func TestTextWritesChangedFrames(t *testing.T) {
	c := newCityRun(t)
	var buf bytes.Buffer
	txt := NewText(&buf, WithClear())

	require.NoError(t, txt.Render(c.m))
	require.NoError(t, txt.Render(c.m))
	assert.Equal(t, 1, strings.Count(buf.String(), clearScreen))

	c.src.SetInt("file_time", 1200)
	require.NoError(t, txt.Render(c.m))
	assert.Equal(t, 2, strings.Count(buf.String(), clearScreen))
	assert.Contains(t, buf.String(), "1.2/40.0")
}
