package display

import (
	"strings"

	"github.com/aarondl/opt/null"

	"github.com/roach88/splitkeeper/internal/engine"
	"github.com/roach88/splitkeeper/internal/record"
)

// Tone colours a column.
type Tone int

const (
	Normal Tone = iota
	Ahead
	Behind
	Gold
)

// Column is one cell of a line.
type Column struct {
	Text string
	Tone Tone
}

// Line is one rendered row: an indented label followed by the segment
// and total columns. A zero Line is blank.
type Line struct {
	Indent  int
	Label   string
	Segment Column
	Total   Column
}

// Column widths of the plain layout.
const (
	labelWidth   = 35
	segmentWidth = 20
)

const noTime = "--"

// Lines renders the rows of v that fit in height lines.
func Lines(v engine.View, height int) []Line {
	rows := Rows(v.Route())
	rows = Window(rows, CurrentRow(v, rows), height)

	out := make([]Line, len(rows))
	for i, row := range rows {
		if row.Split == nil {
			continue
		}
		out[i] = lineFor(Stats(v, row.Split, row.Level))
	}
	return out
}

func lineFor(st LevelStats) Line {
	name, err := st.Split.LevelName(st.Level)
	if err != nil {
		name = st.Split.Name()
	}
	l := Line{Indent: st.Level, Label: name + ":"}

	switch st.Status {
	case Present:
		l.Segment = Column{Text: fmtOr(st.Segment, 1, false) + "/" + fmtOr(st.PBSegment, 1, false)}
		if st.PBDelta().IsValue() {
			l.Segment.Tone = Behind
			if st.Ahead() {
				l.Segment.Tone = Ahead
			}
		}
	case Past:
		l.Segment = pastSegment(st)
		l.Total = pastTotal(st)
	default:
		l.Segment = Column{Text: fmtOr(st.PBSegment, 1, false)}
		l.Total = Column{Text: fmtOr(st.PBTotal, 1, false)}
	}
	return l
}

func pastSegment(st LevelStats) Column {
	var c Column
	switch {
	case st.Segment.IsNull():
		c.Text = noTime
	case st.PBSegment.IsNull():
		c.Text = record.FormatSplit(st.Segment.MustGet(), 0, false)
	default:
		c.Text = record.FormatSplit(st.PBDelta().MustGet(), 1, true)
		c.Tone = Behind
		if st.Ahead() {
			c.Tone = Ahead
		}
		if st.IsGold() {
			c.Tone = Gold
		}
	}

	switch {
	case st.Gold.IsNull():
		c.Text += "/" + noTime
	case st.PBSegment.IsNull():
		c.Text += "/" + record.FormatSplit(st.Gold.MustGet(), 0, false)
	default:
		c.Text += "/" + record.FormatSplit(st.Timesave().MustGet(), 1, false)
	}
	return c
}

func pastTotal(st LevelStats) Column {
	total, ok := st.Total.Get()
	if !ok {
		return Column{Text: noTime + "/" + noTime}
	}
	c := Column{Text: record.FormatSplit(total, 1, false) + "/"}
	d, ok := st.TotalDiff().Get()
	if !ok {
		c.Text += noTime
		return c
	}
	c.Text += record.FormatSplit(d, 1, true)
	c.Tone = Behind
	if d < 0 {
		c.Tone = Ahead
	}
	return c
}

func fmtOr(v null.Val[int64], decimals int, sign bool) string {
	ms, ok := v.Get()
	if !ok {
		return noTime
	}
	return record.FormatSplit(ms, decimals, sign)
}

// String renders l in the plain fixed-width layout.
func (l Line) String() string {
	if l.Label == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", l.Indent))
	b.WriteString(pad(l.Label, labelWidth))
	b.WriteString(pad(l.Segment.Text, segmentWidth))
	b.WriteString(l.Total.Text)
	return strings.TrimRight(b.String(), " ")
}

func pad(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
