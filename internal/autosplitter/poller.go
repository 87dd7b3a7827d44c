package autosplitter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/splitkeeper/internal/ir"
)

// DefaultPollInterval is how often the poller re-reads the record.
const DefaultPollInterval = time.Millisecond

// Poller keeps the latest snapshot of a record file.
//
// Thread-safety model:
//   - Run: one goroutine
//   - Snapshot, Polls, Ready: safe from any goroutine
type Poller struct {
	path     string
	interval time.Duration
	logger   *slog.Logger
	onPoll   func(ir.Snapshot)

	latest    atomic.Pointer[ir.Snapshot]
	polls     atomic.Int64
	ready     chan struct{}
	readyOnce sync.Once
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the poll period. Default: DefaultPollInterval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLogger sets the poller's logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) {
		p.logger = l
	}
}

// WithPollHook calls fn with every decoded snapshot, on the poller
// goroutine. fn must not block.
func WithPollHook(fn func(ir.Snapshot)) Option {
	return func(p *Poller) {
		p.onPoll = fn
	}
}

// NewPoller creates a poller for the record file at path. Until the first
// successful read, Snapshot returns the zero record.
func NewPoller(path string, opts ...Option) *Poller {
	p := &Poller{
		path:     path,
		interval: DefaultPollInterval,
		logger:   slog.Default(),
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	zero := Record{}.Snapshot()
	p.latest.Store(&zero)
	return p
}

// Snapshot returns the most recently published snapshot. It never blocks.
// The returned map is shared and must not be modified.
func (p *Poller) Snapshot() ir.Snapshot {
	return *p.latest.Load()
}

// Ready is closed after the first successful read. Until then Snapshot is
// the zero record, which is not real game state.
func (p *Poller) Ready() <-chan struct{} {
	return p.ready
}

// Polls returns the number of successful reads so far.
func (p *Poller) Polls() int64 {
	return p.polls.Load()
}

// Poll reads and publishes one snapshot.
func (p *Poller) Poll(r io.ReaderAt) error {
	buf := make([]byte, Size)
	if _, err := r.ReadAt(buf, 0); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read snapshot: %w", err)
	}
	rec, err := Decode(buf)
	if err != nil {
		return err
	}
	snap := rec.Snapshot()
	p.latest.Store(&snap)
	p.polls.Add(1)
	p.readyOnce.Do(func() { close(p.ready) })
	if p.onPoll != nil {
		p.onPoll(snap)
	}
	return nil
}

// Run opens the record file and polls it until ctx is cancelled. Read
// errors are logged and retried on the next poll; a short read leaves the
// missing tail zeroed.
func (p *Poller) Run(ctx context.Context) error {
	f, err := os.Open(p.path)
	if err != nil {
		return fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()

	p.logger.Info("polling snapshot file", "path", p.path, "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var failing bool
	for {
		if err := p.Poll(f); err != nil {
			if !failing {
				p.logger.Warn("snapshot read failed", "path", p.path, "error", err)
			}
			failing = true
		} else if failing {
			p.logger.Info("snapshot read recovered", "path", p.path)
			failing = false
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
