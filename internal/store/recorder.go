package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/splitkeeper/internal/engine"
)

// DefaultRecordTimeout bounds one attempt insert.
const DefaultRecordTimeout = 2 * time.Second

// Recorder is an engine.Observer that records every non-empty commit as
// an attempt. Failures are logged; the run never waits on history.
type Recorder struct {
	store   *Store
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRecorderLogger sets the logger. Default: slog.Default().
func WithRecorderLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = l
	}
}

// WithNow sets the wall clock stamped on attempts.
func WithNow(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// NewRecorder returns a recorder writing to s.
func NewRecorder(s *Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:   s,
		logger:  slog.Default(),
		timeout: DefaultRecordTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) OnSplit(engine.SplitEvent) {}

func (r *Recorder) OnReset() {}

func (r *Recorder) OnCommit(res engine.CommitResult) {
	if res.Empty() {
		return
	}
	a := AttemptFromCommit(res, r.now())

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.store.RecordAttempt(ctx, a); err != nil {
		r.logger.Error("record attempt failed", "route", a.Route, "error", err)
		return
	}
	r.logger.Debug("attempt recorded",
		"route", a.Route,
		"attempt", a.ID,
		"completed", a.Completed,
		"segments", len(a.Segments),
	)
}
