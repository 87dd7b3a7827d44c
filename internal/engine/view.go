package engine

import (
	"github.com/aarondl/opt/null"

	"github.com/roach88/splitkeeper/internal/record"
	"github.com/roach88/splitkeeper/internal/route"
)

// View is read-only access to a run for renderers and observers.
// Implementations must not be mutated through it; records it returns are
// shared and must be treated as read-only.
type View interface {
	Route() *route.Route
	Done() bool
	Started() bool
	CurrentPiece() route.Piece
	CurrentSplit(level int) *route.Split
	PreviousSplit(level int) *route.Split
	CurrentTime() int64
	CurrentSegmentTime(level int) null.Val[int64]
	IsSegmentDone(split *route.Split) bool
	Times() *record.Times
	PersonalBest() *record.Times
	Golds() *record.Golds
}

var _ View = (*Manager)(nil)
