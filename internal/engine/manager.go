package engine

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/aarondl/opt/null"

	"github.com/roach88/splitkeeper/internal/ir"
	"github.com/roach88/splitkeeper/internal/record"
	"github.com/roach88/splitkeeper/internal/route"
)

// Source supplies the latest game-state snapshot. Snapshot must not block.
type Source interface {
	Snapshot() ir.Snapshot
}

// Manager is the traversal engine for one route.
//
// Thread-safety model:
//   - mutators (Update, Skip, Rewind, Split, Commit, Reset, Reload) must be
//     called from one goroutine
//   - PersonalBest and Golds may be read from any goroutine
type Manager struct {
	source Source
	route  *route.Route

	cursor      int
	times       *record.Times
	started     bool
	startOffset int64

	pb    atomic.Pointer[record.Times]
	golds atomic.Pointer[record.Golds]

	logger    *slog.Logger
	observers []Observer
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithObserver registers an observer. Observers run in registration order.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		m.observers = append(m.observers, o)
	}
}

// New creates a manager for r. The personal best and golds are resynced
// against r, so records saved against an older version of the route keep
// every time whose split still exists. Nil records start empty.
func New(source Source, r *route.Route, pb *record.Times, golds *record.Golds, opts ...Option) *Manager {
	if pb == nil {
		pb = record.NewTimes()
	}
	if golds == nil {
		golds = record.NewGolds()
	}

	m := &Manager{
		source: source,
		route:  r,
		times:  record.NewTimes(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.pb.Store(pb.Resync(r))
	m.golds.Store(golds.Resync(r))
	return m
}

func (m *Manager) Route() *route.Route {
	return m.route
}

// Times returns the live timing record. Callers must not modify it.
func (m *Manager) Times() *record.Times {
	return m.times
}

// PersonalBest returns the current personal-best record.
func (m *Manager) PersonalBest() *record.Times {
	return m.pb.Load()
}

// Golds returns the current gold record.
func (m *Manager) Golds() *record.Golds {
	return m.golds.Load()
}

func (m *Manager) Cursor() int {
	return m.cursor
}

// Started reports whether a trigger has fired since the last reset.
func (m *Manager) Started() bool {
	return m.started
}

func (m *Manager) StartOffset() int64 {
	return m.startOffset
}

// Done reports whether the cursor has passed the final piece.
func (m *Manager) Done() bool {
	return m.cursor >= m.route.Len()
}

// CurrentPiece returns the piece at the cursor, or nil when done.
func (m *Manager) CurrentPiece() route.Piece {
	return m.route.Piece(m.cursor)
}

// CurrentSplit returns the split in progress at level: the first split at
// or after the cursor whose level is at most level. Nil when done.
func (m *Manager) CurrentSplit(level int) *route.Split {
	if m.Done() {
		return nil
	}
	i, ok := m.route.SplitIndex(m.cursor, level)
	if !ok {
		return nil
	}
	return m.route.Piece(i).(*route.Split)
}

// PreviousSplit returns the last split at level before the current one,
// or nil at the start of the route. When done it is the final split.
func (m *Manager) PreviousSplit(level int) *route.Split {
	before := m.route.Len()
	if !m.Done() {
		if i, ok := m.route.SplitIndex(m.cursor, level); ok {
			before = i
		}
	}
	i, ok := m.route.PreviousSplitIndex(before, level)
	if !ok {
		return nil
	}
	return m.route.Piece(i).(*route.Split)
}

// IsSegmentDone reports whether the cursor has passed split.
func (m *Manager) IsSegmentDone(split *route.Split) bool {
	return m.cursor > m.route.IndexOf(split)
}

// CurrentTime returns the time-source field minus the start offset.
func (m *Manager) CurrentTime() int64 {
	return m.timeAt(m.source.Snapshot())
}

// CurrentSegmentTime returns the elapsed time of the segment in progress
// at level. It is null when done or when the previous split at level has
// no time.
func (m *Manager) CurrentSegmentTime(level int) null.Val[int64] {
	if m.Done() {
		return null.Val[int64]{}
	}
	now := m.CurrentTime()
	prev := m.PreviousSplit(level)
	if prev == nil {
		return null.From(now)
	}
	v, _ := m.times.Get(prev.ID)
	start, ok := v.Get()
	if !ok {
		return null.Val[int64]{}
	}
	return null.From(now - start)
}

func (m *Manager) rawTime(snap ir.Snapshot) int64 {
	v, err := snap.Int(string(m.route.TimeField))
	if err != nil {
		m.logger.Debug("time field unavailable", "field", m.route.TimeField, "error", err)
		return 0
	}
	return v
}

func (m *Manager) timeAt(snap ir.Snapshot) int64 {
	return m.rawTime(snap) - m.startOffset
}

// Split records the current time for split. It does not move the cursor.
func (m *Manager) Split(split *route.Split) {
	m.record(split, null.From(m.CurrentTime()))
}

func (m *Manager) record(split *route.Split, t null.Val[int64]) {
	path := m.route.Path(split)
	m.times.Record(split, path, t)

	if v, ok := t.Get(); ok {
		m.logger.Debug("split", "route", m.route.Name, "split", path, "level", split.Level, "time", v)
	} else {
		m.logger.Debug("split skipped", "route", m.route.Name, "split", path, "level", split.Level)
	}
	for _, o := range m.observers {
		o.OnSplit(SplitEvent{Split: split, Path: path, Time: t, View: m})
	}
}

// Update runs one tick of traversal. A firing reset trigger commits and
// resets the run and ends the tick. Otherwise the cursor advances through
// splits and start markers, and through triggers while they fire.
func (m *Manager) Update() {
	snap := m.source.Snapshot()

	if rt := m.route.ResetTrigger; rt != nil && rt.Check(snap) {
		if m.cursor > 0 || m.started || m.times.Len() > 0 {
			m.logger.Info("reset trigger fired", "route", m.route.Name, "trigger", rt.Name)
			m.Commit()
			m.Reset()
		}
		return
	}

	for !m.Done() {
		switch p := m.CurrentPiece().(type) {
		case *route.Split:
			m.record(p, null.From(m.timeAt(snap)))
			m.cursor++
		case route.StartTimer:
			m.startOffset = m.rawTime(snap)
			m.cursor++
		case *route.Trigger:
			if !p.Check(snap) {
				return
			}
			m.logger.Debug("trigger fired", "route", m.route.Name, "trigger", p.Name)
			m.started = true
			m.cursor++
		default:
			m.logger.Error("unknown piece", "route", m.route.Name, "index", m.cursor)
			return
		}
	}
}

// Skip force-advances past n triggers. Splits passed on the way are
// recorded as null and start markers still set the start offset. It stops
// at the next trigger once n triggers are passed, or at the end.
func (m *Manager) Skip(n int) {
	snap := m.source.Snapshot()
	for !m.Done() {
		switch p := m.CurrentPiece().(type) {
		case *route.Split:
			m.record(p, null.Val[int64]{})
			m.cursor++
		case route.StartTimer:
			m.startOffset = m.rawTime(snap)
			m.cursor++
		case *route.Trigger:
			if n <= 0 {
				return
			}
			m.started = true
			m.cursor++
			n--
		default:
			return
		}
	}
}

// Rewind steps the cursor back, undoing what each piece did. The piece at
// the cursor is handled before the step back, so a run blocked on a
// trigger (or done) spends one of n on that position. Splits lose their
// times and start markers clear the started flag. Once n triggers are
// spent, rewinding continues past a trigger only while its condition
// still holds, since stopping there would re-fire it on the next tick.
func (m *Manager) Rewind(n int) {
	snap := m.source.Snapshot()
	for m.cursor > 0 {
		switch p := m.CurrentPiece().(type) {
		case nil:
			if n <= 0 {
				return
			}
			n--
		case *route.Split:
			m.times.Delete(p.ID)
		case route.StartTimer:
			m.started = false
		case *route.Trigger:
			switch {
			case n > 0:
				n--
			case p.Check(snap):
			default:
				return
			}
		}
		m.cursor--
	}

	// Back at the first piece: nothing has been passed.
	if s, ok := m.CurrentPiece().(*route.Split); ok {
		m.times.Delete(s.ID)
	}
	m.started = false
}

// Commit folds the run into the personal best and golds.
//
// The personal best is replaced by the run when the final split has a
// time and there is no personal-best time or the run is strictly faster.
// Each subsegment the run completed with a time strictly lower than its
// gold (or with no gold yet) becomes the new gold, so a partial run can
// improve golds without touching the personal best.
func (m *Manager) Commit() CommitResult {
	res := CommitResult{Route: m.route, Run: m.times.Clone()}

	if cur, ok := m.times.Final(m.route).Get(); ok {
		best, hasBest := m.PersonalBest().Final(m.route).Get()
		if !hasBest || cur < best {
			m.pb.Store(m.times.Resync(m.route))
			res.PersonalBest = true
			m.logger.Info("new personal best", "route", m.route.Name, "time", cur)
		}
	}

	golds := m.Golds().Clone()
	for sub := range m.route.AllSubsegments() {
		seg, err := m.times.SegmentTime(sub.Split.ID, sub.Level)
		if err != nil {
			if !errors.Is(err, ir.ErrNotFound) {
				m.logger.Error("segment time", "split", m.route.Path(sub.Split), "error", err)
			}
			// Not reached in this run.
			continue
		}
		d, ok := seg.Get()
		if !ok {
			continue
		}
		k := record.KeyOf(sub)
		if golds.Improve(k, m.route.Path(sub.Split), d) {
			res.Golds = append(res.Golds, k)
		}
	}
	if len(res.Golds) > 0 {
		m.golds.Store(golds)
		m.logger.Info("golds improved", "route", m.route.Name, "count", len(res.Golds))
	}

	for _, o := range m.observers {
		o.OnCommit(res)
	}
	return res
}

// Reset starts a fresh run. The personal best and golds are untouched.
func (m *Manager) Reset() {
	m.cursor = 0
	m.times = record.NewTimes()
	m.started = false
	m.startOffset = 0

	for _, o := range m.observers {
		o.OnReset()
	}
}

// Reload switches to r. The current run is committed against the old
// route and reset, then the personal best and golds are resynced to r.
func (m *Manager) Reload(r *route.Route) CommitResult {
	res := m.Commit()
	m.Reset()

	old := m.route
	m.route = r
	m.pb.Store(m.PersonalBest().Resync(r))
	m.golds.Store(m.Golds().Resync(r))

	m.logger.Info("route reloaded", "route", r.Name, "previous_hash", old.Hash(), "hash", r.Hash())
	return res
}
