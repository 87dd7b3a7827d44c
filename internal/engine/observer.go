package engine

import (
	"github.com/aarondl/opt/null"

	"github.com/roach88/splitkeeper/internal/record"
	"github.com/roach88/splitkeeper/internal/route"
)

// SplitEvent describes one split being recorded.
type SplitEvent struct {
	Split *route.Split
	Path  string

	// Time is null when the split was skipped.
	Time null.Val[int64]

	// View is the manager after the split was recorded.
	View View
}

// CommitResult reports what a commit changed.
type CommitResult struct {
	// Route is the route the run was committed against.
	Route *route.Route

	// Run is a copy of the committed timing record.
	Run *record.Times

	// PersonalBest is true when the run replaced the personal best.
	PersonalBest bool

	// Golds lists the subsegments whose gold improved, in route order.
	Golds []record.Key
}

// Empty reports whether the committed run recorded no splits.
func (r CommitResult) Empty() bool {
	return r.Run == nil || r.Run.Len() == 0
}

// Observer receives run events. Methods are called synchronously on the
// runner goroutine and must not block or call Manager mutators.
type Observer interface {
	OnSplit(ev SplitEvent)
	OnCommit(res CommitResult)
	OnReset()
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are
// ignored.
type ObserverFuncs struct {
	Split  func(SplitEvent)
	Commit func(CommitResult)
	Reset  func()
}

func (o ObserverFuncs) OnSplit(ev SplitEvent) {
	if o.Split != nil {
		o.Split(ev)
	}
}

func (o ObserverFuncs) OnCommit(res CommitResult) {
	if o.Commit != nil {
		o.Commit(res)
	}
}

func (o ObserverFuncs) OnReset() {
	if o.Reset != nil {
		o.Reset()
	}
}
