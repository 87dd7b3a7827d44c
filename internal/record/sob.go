package record

import (
	"github.com/aarondl/opt/null"

	"github.com/roach88/splitkeeper/internal/route"
)

// SumOfBest returns the best achievable run time from golds: for each
// top-level segment, the lower of its gold and the sum of best of the
// subsegments it contains. The result is null while any top-level
// segment lacks a gold.
func SumOfBest(r *route.Route, g *Golds) null.Val[int64] {
	return sumOfBest(r.Splits(), g, 0)
}

func sumOfBest(splits []*route.Split, g *Golds, level int) null.Val[int64] {
	var total int64
	start := 0
	for i, s := range splits {
		if s.Level > level {
			continue
		}
		best, _ := g.Get(Key{ID: s.ID, Level: level})
		if i-start > 0 {
			sub := sumOfBest(splits[start:i+1], g, level+1)
			if b, ok := best.Get(); ok {
				if sv, ok := sub.Get(); ok && sv < b {
					best = sub
				}
			}
		}
		start = i + 1

		v, ok := best.Get()
		if !ok {
			return null.Val[int64]{}
		}
		total += v
	}
	return null.From(total)
}
