package display

import (
	"github.com/roach88/splitkeeper/internal/engine"
	"github.com/roach88/splitkeeper/internal/route"
)

// Row is one (split, level) pair to display. A zero Row is a blank line.
type Row struct {
	Split *route.Split
	Level int
}

// Rows lists the rows of r in display order. Entering a nested segment
// first shows the splits that close each enclosing level, so a parent
// heads its children; leaving one shows the closing split at the deeper
// level it ends.
func Rows(r *route.Route) []Row {
	splits := r.Splits()
	rows := make([]Row, 0, len(splits))
	last := 0
	for i, s := range splits {
		switch {
		case s.Level > last:
			for target := last; target < s.Level; target++ {
				for _, next := range splits[i+1:] {
					if next.Level == target {
						rows = append(rows, Row{Split: next, Level: target})
						break
					}
				}
			}
			rows = append(rows, Row{Split: s, Level: s.Level})
		case s.Level < last:
			rows = append(rows, Row{Split: s, Level: last})
		default:
			rows = append(rows, Row{Split: s, Level: s.Level})
		}
		last = s.Level
	}
	return rows
}

// CurrentRow returns the index of the last row showing the deepest split
// in progress, or the final row when the run is done.
func CurrentRow(v engine.View, rows []Row) int {
	cur := v.CurrentSplit(v.Route().Levels())
	idx := len(rows) - 1
	for i, row := range rows {
		if cur != nil && row.Split == cur {
			idx = i
		}
	}
	return idx
}

// Window picks at most height rows around current. The current row and
// the final row are always kept, earlier rows are preferred over later
// ones, and short windows are padded with blank rows above the final row.
// A height of zero or less keeps every row.
func Window(rows []Row, current, height int) []Row {
	if height <= 0 || len(rows) == 0 {
		return rows
	}

	last := len(rows) - 1
	prev := append([]Row(nil), rows[:current]...)
	var later []Row
	if current < last {
		later = append(later, rows[current+1:last]...)
	}

	out := []Row{rows[current]}
	at := 0
	if current != last && len(out) < height {
		out = append(out, rows[last])
	}
	for len(out) < height && len(prev) > 0 {
		out = append([]Row{prev[len(prev)-1]}, out...)
		prev = prev[:len(prev)-1]
		at++
	}
	added := 0
	for len(out) < height && len(later) > 0 {
		pos := at + 1 + added
		out = append(out[:pos], append([]Row{later[0]}, out[pos:]...)...)
		later = later[1:]
		added++
	}
	for len(out) < height {
		pos := len(out) - 1
		out = append(out[:pos], append([]Row{{}}, out[pos:]...)...)
	}
	return out
}
