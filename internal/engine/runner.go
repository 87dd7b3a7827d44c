package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultTickInterval is the tick period when none is configured.
const DefaultTickInterval = 10 * time.Millisecond

// Renderer draws a view after each tick. It must not mutate the run.
type Renderer interface {
	Render(v View) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(View) error

func (f RendererFunc) Render(v View) error {
	return f(v)
}

// Runner owns the tick loop for a Manager.
//
// Thread-safety model:
//   - Enqueue: safe from any goroutine
//   - Tick, Run: one goroutine, which is the manager's single writer
type Runner struct {
	manager  *Manager
	queue    *commandQueue
	clock    *Clock
	interval time.Duration
	renderer Renderer
	ready    <-chan struct{}
	logger   *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTickInterval sets the tick period. Default: DefaultTickInterval.
func WithTickInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithRenderer sets the renderer called after each tick.
func WithRenderer(rd Renderer) RunnerOption {
	return func(r *Runner) {
		r.renderer = rd
	}
}

// WithReady makes Run wait for ready to close before the first tick. The
// snapshot source closes it once it holds real game state.
func WithReady(ready <-chan struct{}) RunnerOption {
	return func(r *Runner) {
		r.ready = ready
	}
}

// WithRunnerLogger sets the runner's logger. Default: slog.Default().
func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a runner driving m.
func NewRunner(m *Manager, opts ...RunnerOption) *Runner {
	r := &Runner{
		manager:  m,
		queue:    newCommandQueue(),
		clock:    NewClock(),
		interval: DefaultTickInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Manager returns the driven manager. Only the runner goroutine may call
// its mutators.
func (r *Runner) Manager() *Manager {
	return r.manager
}

// Enqueue submits a command for the next tick. Safe from any goroutine.
func (r *Runner) Enqueue(c Command) error {
	if !r.queue.Enqueue(c) {
		return ErrQueueClosed
	}
	return nil
}

// Tick runs one tick: apply queued commands, update, render. It returns
// the tick number.
func (r *Runner) Tick() int64 {
	tick := r.clock.Next()

	for _, c := range r.queue.Drain() {
		if err := r.apply(c); err != nil {
			// Log and continue: a bad command must not stop the run.
			r.logger.Warn("command rejected", "tick", tick, "action", c.Action, "error", err)
		}
	}

	r.manager.Update()

	if r.renderer != nil {
		if err := r.renderer.Render(r.manager); err != nil {
			r.logger.Warn("render failed", "tick", tick, "error", err)
		}
	}
	return tick
}

func (r *Runner) apply(c Command) error {
	if c.N < 0 {
		return &RuntimeError{
			Code:    ErrCodeInvalidCount,
			Message: fmt.Sprintf("%s count must not be negative", c.Action),
			Details: map[string]string{"n": fmt.Sprintf("%d", c.N)},
		}
	}

	switch c.Action {
	case ActionSkip:
		r.manager.Skip(c.count())
	case ActionRewind:
		r.manager.Rewind(c.count())
	case ActionReset:
		r.manager.Commit()
		r.manager.Reset()
	case ActionReload:
		if c.Route == nil {
			return &RuntimeError{Code: ErrCodeMissingRoute, Message: "reload needs a route"}
		}
		r.manager.Reload(c.Route)
	default:
		return &RuntimeError{Code: ErrCodeUnknownAction, Message: fmt.Sprintf("unknown action %s", c.Action)}
	}
	r.logger.Debug("command applied", "action", c.Action, "n", c.count())
	return nil
}

// Run ticks until ctx is cancelled. A queued command wakes the loop for an
// immediate tick. On cancellation the run is committed one last time so a
// partial run can still improve golds, then ctx.Err() is returned. Callers
// persist records from the manager afterwards.
//
// With WithReady, no tick runs before the source is ready; cancelling
// before then returns without a commit.
func (r *Runner) Run(ctx context.Context) error {
	if r.ready != nil {
		select {
		case <-r.ready:
		case <-ctx.Done():
			r.queue.Close()
			r.logger.Info("runner stopping before the source was ready")
			return ctx.Err()
		}
	}

	r.logger.Info("runner starting", "route", r.manager.Route().Name, "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.Tick()

		select {
		case <-ctx.Done():
			r.queue.Close()
			res := r.manager.Commit()
			r.logger.Info("runner stopping",
				"ticks", r.clock.Current(),
				"personal_best", res.PersonalBest,
				"golds", len(res.Golds),
			)
			return ctx.Err()
		case <-r.queue.Wait():
		case <-ticker.C:
		}
	}
}
