package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/splitkeeper/internal/autosplitter"
	"github.com/roach88/splitkeeper/internal/config"
	"github.com/roach88/splitkeeper/internal/display"
	"github.com/roach88/splitkeeper/internal/engine"
	"github.com/roach88/splitkeeper/internal/notify"
	"github.com/roach88/splitkeeper/internal/record"
	"github.com/roach88/splitkeeper/internal/route"
	"github.com/roach88/splitkeeper/internal/store"
	"github.com/roach88/splitkeeper/internal/watch"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	PB    string
	Golds string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}
	d := config.Default()

	cmd := &cobra.Command{
		Use:   "run <route>",
		Short: "Time a run against a route",
		Long: `Poll the autosplitter snapshot and drive the route: splits are taken as
their triggers fire, and the display shows times against the personal best
and golds.

Keys (tui display): s skip, r rewind, x reset, q quit.

The route file is watched; saving it reloads the route between ticks. On
exit the golds are saved, and the personal best when it covers every split.

Example:
  splitkeeper run any.yaml
  splitkeeper run any.yaml --display plain --history-db runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(opts, args[0], cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.PB, "pb", "", "personal best file (default <route>.pb.yaml)")
	f.StringVar(&opts.Golds, "golds", "", "golds file (default <route>.golds.yaml)")
	f.String("asi-path", d.ASIPath, "autosplitter snapshot file")
	f.Duration("tick-interval", d.TickInterval, "engine tick interval")
	f.Duration("poll-interval", d.PollInterval, "snapshot poll interval")
	f.String("history-db", "", "record attempts in this SQLite database")
	f.String("display", d.Display, "display mode (tui|plain|none)")
	f.Int("notify-level", d.NotifyLevel, "deepest split level to announce")
	f.String("nats-url", "", "publish split events to this NATS server")
	f.String("nats-subject", d.NATS.Subject, "NATS subject prefix")

	return cmd
}

func runSession(opts *RunOptions, routePath string, cmd *cobra.Command) error {
	cfg := opts.Config
	logger := opts.logger()

	r, err := loadRoute(routePath, cfg.AllowExpressions)
	if err != nil {
		return LoadFailure(routePath, err)
	}
	if n, err := pinRouteIDs(routePath, cfg.AllowExpressions); err != nil {
		logger.Warn("split ids not written; renaming a split will drop its records", "route", routePath, "error", err)
	} else if n > 0 {
		logger.Info("wrote split ids into route", "route", routePath, "ids", n)
	}
	paths := recordPaths(routePath, opts.PB, opts.Golds)
	pb, golds, err := loadRecords(paths)
	if err != nil {
		return err
	}
	logger.Info("route loaded", "route", r.Name, "splits", len(r.Splits()), "hash", r.Hash())

	observers, closeObservers, err := sessionObservers(cfg, logger)
	if err != nil {
		return err
	}
	defer closeObservers()

	poller := autosplitter.NewPoller(cfg.ASIPath,
		autosplitter.WithInterval(cfg.PollInterval),
		autosplitter.WithLogger(logger),
	)

	engineOpts := []engine.Option{engine.WithLogger(logger)}
	for _, o := range observers {
		engineOpts = append(engineOpts, engine.WithObserver(o))
	}
	m := engine.New(poller, r, pb, golds, engineOpts...)

	runnerOpts := []engine.RunnerOption{
		engine.WithTickInterval(cfg.TickInterval),
		engine.WithRunnerLogger(logger),
		engine.WithReady(poller.Ready()),
	}
	var term *display.Terminal
	switch cfg.Display {
	case config.DisplayTUI:
		term, err = display.OpenTerminal(logger)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open terminal", err)
		}
		runnerOpts = append(runnerOpts, engine.WithRenderer(term))
	case config.DisplayPlain:
		runnerOpts = append(runnerOpts, engine.WithRenderer(display.NewText(cmd.OutOrStdout(), display.WithClear())))
	}
	rn := engine.NewRunner(m, runnerOpts...)

	watcher := watch.New(routePath,
		func(path string) (*route.Route, error) { return loadRoute(path, cfg.AllowExpressions) },
		func(nr *route.Route) error {
			return rn.Enqueue(engine.Command{Action: engine.ActionReload, Route: nr})
		},
		watch.WithLogger(logger),
		watch.WithCurrent(r),
	)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := autosplitter.WaitForFile(gctx, cfg.ASIPath, logger); err != nil {
			return err
		}
		return poller.Run(gctx)
	})
	g.Go(func() error { return rn.Run(gctx) })
	g.Go(func() error { return watcher.Run(gctx) })
	if term != nil {
		g.Go(func() error { return term.Input(gctx, rn.Enqueue) })
	}

	err = g.Wait()
	if term != nil {
		term.Close()
	}
	if errors.Is(err, display.ErrQuit) {
		err = nil
	}
	err = cleanExit(err)
	if err != nil {
		// The runner has stopped, so the records are still worth saving.
		logger.Error("session stopped", "error", err)
	}

	if serr := saveRecords(cmd.OutOrStdout(), m, paths, logger); serr != nil {
		return serr
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "session error", err)
	}
	return nil
}

// sessionObservers builds the split listeners the configuration asks for.
// The returned func releases their connections.
func sessionObservers(cfg config.Config, logger *slog.Logger) ([]engine.Observer, func(), error) {
	observers := []engine.Observer{notify.NewLogger(logger, cfg.NotifyLevel)}
	var closers []io.Closer
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Error("error closing", "error", err)
			}
		}
	}

	if cfg.NATS.URL != "" {
		nc, err := notify.Dial(cfg.NATS.URL)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to connect to NATS", err)
		}
		closers = append(closers, closerFunc(func() error { return nc.Drain() }))
		observers = append(observers, notify.NewNATS(nc,
			notify.WithSubject(cfg.NATS.Subject),
			notify.WithLevel(cfg.NotifyLevel),
			notify.WithLogger(logger),
		))
		logger.Info("publishing splits", "url", cfg.NATS.URL, "subject", cfg.NATS.Subject)
	}

	if cfg.HistoryDB != "" {
		st, err := store.Open(cfg.HistoryDB)
		if err != nil {
			closeAll()
			return nil, nil, WrapExitError(ExitCommandError, "failed to open history database", err)
		}
		closers = append(closers, st)
		observers = append(observers, store.NewRecorder(st, store.WithRecorderLogger(logger)))
		logger.Info("recording attempts", "db", cfg.HistoryDB)
	}

	return observers, closeAll, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// saveRecords writes the records after the session. The personal best is
// saved whenever it has a final time, even if the run skipped splits; the
// engine only replaces it with a faster finish. Golds are always saved.
func saveRecords(w io.Writer, m *engine.Manager, paths recordSet, logger *slog.Logger) error {
	r := m.Route()

	if pb := m.PersonalBest(); pb.Final(r).IsValue() {
		if err := record.SaveTimes(paths.PB, pb, r); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("[%s] failed to save personal best", ErrCodeWriteFailed), err)
		}
		fmt.Fprintf(w, "saved personal best to %s\n", paths.PB)
	} else {
		logger.Info("no finished run, personal best not saved", "route", r.Name, "path", paths.PB)
	}

	if err := record.SaveGolds(paths.Golds, m.Golds(), r); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("[%s] failed to save golds", ErrCodeWriteFailed), err)
	}
	fmt.Fprintf(w, "saved golds to %s\n", paths.Golds)
	fmt.Fprintf(w, "sum of best: %s\n", orDash(optTime(record.SumOfBest(r, m.Golds()))))
	return nil
}
