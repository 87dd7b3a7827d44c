package notify

import (
	"strings"

	"github.com/aarondl/opt/null"

	"github.com/roach88/splitkeeper/internal/engine"
	"github.com/roach88/splitkeeper/internal/record"
	"github.com/roach88/splitkeeper/internal/route"
)

// Summary describes split as just recorded in v, comparing against the
// personal best and golds from before the split:
//
//	Checkpoint: -1.5/1.0 [GOLD] == Chapter: +0.5/2.0 == Time: 12:34/-1.2
//
// Each level part shows the delta to the personal-best segment (or the raw
// segment time without one), then the personal best's possible timesave
// against the gold. Levels 1 and 0 are shown when split closes a segment
// there; level 1 is dropped when it equals level 0. Empty when split has
// no time.
func Summary(v engine.View, split *route.Split) string {
	top, ok := getTime(v.Times(), split)
	if !ok {
		return ""
	}

	r := v.Route()
	l0, ok0 := levelPart(v, split, 0)
	l1, ok1 := levelPart(v, split, 1)

	var parts []string
	if ok1 && (!ok0 || l1.time != l0.time) {
		parts = append(parts, r.LevelName(1)+": "+l1.String(0))
	}
	if ok0 {
		parts = append(parts, r.LevelName(0)+": "+l0.String(1))
	}

	tt := "Time: " + record.FormatSplit(top, 0, false) + "/"
	if pb, ok := v.PersonalBest().Get(split.ID); ok && pb.IsValue() {
		tt += record.FormatSplit(top-pb.MustGet(), 1, true)
	} else {
		tt += "?"
	}
	parts = append(parts, tt)
	return strings.Join(parts, " == ")
}

type part struct {
	time int64
	pb   null.Val[int64]
	gold null.Val[int64]
}

// levelPart reports false when split closes no segment at level or the
// run has no segment time there.
func levelPart(v engine.View, split *route.Split, level int) (part, bool) {
	gold, ok := v.Golds().Get(record.Key{ID: split.ID, Level: level})
	if !ok {
		return part{}, false
	}
	seg, err := v.Times().SegmentTime(split.ID, level)
	if err != nil {
		return part{}, false
	}
	t, ok := seg.Get()
	if !ok {
		return part{}, false
	}
	pb, _ := v.PersonalBest().SegmentTime(split.ID, level)
	return part{time: t, pb: pb, gold: gold}, true
}

// String renders the part. rawDecimals is the precision of the segment
// time when there is no personal best to compare against.
func (p part) String(rawDecimals int) string {
	var b strings.Builder
	pb, hasPB := p.pb.Get()
	gold, hasGold := p.gold.Get()

	if hasPB {
		b.WriteString(record.FormatSplit(p.time-pb, 1, true))
	} else {
		b.WriteString(record.FormatSplit(p.time, rawDecimals, false))
	}
	b.WriteByte('/')
	switch {
	case !hasGold:
		b.WriteByte('?')
	case !hasPB:
		b.WriteString(record.FormatSplit(gold, 0, false))
	default:
		b.WriteString(record.FormatSplit(pb-gold, 1, false))
	}
	if hasGold && p.time < gold {
		b.WriteString(" [GOLD]")
	}
	return b.String()
}

func getTime(t *record.Times, split *route.Split) (int64, bool) {
	v, ok := t.Get(split.ID)
	if !ok {
		return 0, false
	}
	return v.Get()
}
