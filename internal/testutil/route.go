package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/splitkeeper/internal/condition"
	"github.com/roach88/splitkeeper/internal/ir"
	"github.com/roach88/splitkeeper/internal/route"
)

// Route builds a file-timed route from pieces and fails the test when the
// route is invalid.
func Route(t testing.TB, pieces ...route.Piece) *route.Route {
	t.Helper()
	r, err := route.New("test", route.FileTime, pieces, nil, nil)
	require.NoError(t, err)
	return r
}

// Always returns a trigger that fires on every snapshot.
func Always(name string) *route.Trigger {
	return route.NewTrigger(name, condition.Structured(nil, nil))
}

// Never returns a trigger that never fires.
func Never(name string) *route.Trigger {
	return route.NewTrigger(name, condition.FromExpr(condition.Literal{Value: ir.IRBool(false)}))
}

// When returns a trigger that fires while field equals v.
func When(name, field string, v ir.IRValue) *route.Trigger {
	return route.NewTrigger(name, condition.Structured(map[string]ir.IRValue{field: v}, nil))
}

// AtLeast returns a trigger that fires once int field reaches n.
func AtLeast(name, field string, n int64) *route.Trigger {
	return route.NewTrigger(name, condition.FromExpr(condition.Compare{
		Op:    condition.OpGe,
		Left:  condition.Field{Name: field},
		Right: condition.Literal{Value: ir.IRInt(n)},
	}))
}
