package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/roach88/splitkeeper/internal/route"
)

// DefaultDebounce is the quiet period after the last event before a
// reload.
const DefaultDebounce = 200 * time.Millisecond

// Loader compiles the route document at path.
type Loader func(path string) (*route.Route, error)

// ReloadFunc receives each successfully compiled route.
type ReloadFunc func(r *route.Route) error

// Watcher reloads one route file.
type Watcher struct {
	path     string
	load     Loader
	onReload ReloadFunc
	debounce time.Duration
	lastHash string
	logger   *slog.Logger
	ready    chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Default: DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// WithCurrent records the route already running so an unchanged save
// does not reload it.
func WithCurrent(r *route.Route) Option {
	return func(w *Watcher) {
		w.lastHash = r.Hash()
	}
}

// New returns a watcher for the route file at path.
func New(path string, load Loader, onReload ReloadFunc, opts ...Option) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		load:     load,
		onReload: onReload,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Ready is closed once the watch is registered.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled, then returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	close(w.ready)
	w.logger.Info("watching route", "path", w.path)

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		} else {
			timer.Reset(w.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Debug("route watcher stopped", "path", w.path)
			return nil

		case <-fire:
			w.reload()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			// Remove and Rename are the first half of an atomic save; the
			// Create that follows schedules the reload.
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.logger.Debug("route file changed", "path", w.path, "op", ev.Op.String())
				schedule()
			}

		case werr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("route watcher error", "path", w.path, "error", werr)
		}
	}
}

func (w *Watcher) reload() {
	r, err := w.load(w.path)
	if err != nil {
		w.logger.Warn("route reload failed, keeping current route", "path", w.path, "error", err)
		return
	}
	h := r.Hash()
	if h == w.lastHash {
		w.logger.Debug("route unchanged", "path", w.path, "hash", h)
		return
	}
	if err := w.onReload(r); err != nil {
		w.logger.Warn("route reload rejected", "path", w.path, "error", err)
		return
	}
	w.lastHash = h
	w.logger.Info("route reloaded", "route", r.Name, "path", w.path, "hash", h)
}
