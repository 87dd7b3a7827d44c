package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/splitkeeper/internal/autosplitter"
	"github.com/roach88/splitkeeper/internal/compiler"
	"github.com/roach88/splitkeeper/internal/ir"
	"github.com/roach88/splitkeeper/internal/route"
)

// WriteOptions holds flags for commands that produce a route document.
type WriteOptions struct {
	*RootOptions
	Output string // "-" writes to stdout
	Force  bool
}

func (o *WriteOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Output, "output", "o", "-", "output file (- for stdout)")
	cmd.Flags().BoolVar(&o.Force, "force", false, "overwrite an existing output file")
}

// write stores a generated document. An existing file is kept unless
// Force is set.
func (o *WriteOptions) write(cmd *cobra.Command, data []byte) error {
	if o.Output == "" || o.Output == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if !o.Force {
		if _, err := os.Stat(o.Output); err == nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("%s already exists (use --force to overwrite)", o.Output))
		} else if !errors.Is(err, fs.ErrNotExist) {
			return WrapExitError(ExitCommandError, "cannot check output file", err)
		}
	}
	if err := os.WriteFile(o.Output, data, 0o644); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("[%s] failed to write %s", ErrCodeWriteFailed, o.Output), err)
	}
	o.formatter(cmd).VerboseLog("Wrote %s", o.Output)
	return nil
}

func (o *WriteOptions) writeRoute(cmd *cobra.Command, r *route.Route) error {
	data, err := compiler.Encode(r)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot encode route", err)
	}
	return o.write(cmd, data)
}

// NewNewCommand creates the new command, which generates route documents.
func NewNewCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a route document",
	}
	cmd.AddCommand(newChaptersCommand(rootOpts))
	cmd.AddCommand(newSegmentsCommand(rootOpts))
	cmd.AddCommand(newRoomsCommand(rootOpts))
	return cmd
}

func newChaptersCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "chapters <name> <chapter>...",
		Short: "Generate a full-game route with one split per chapter",
		Long: `Generate a route that splits when each listed chapter is completed and the
player returns to the map. Chapters are map names such as 1a, 2b, 7c,
prologue or farewell. The route uses file timing and resets on the file
select screen.

Example:
  splitkeeper new chapters "Any%" prologue 1a 2a 3a 4a 5a 6a 7a -o any.yaml`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := route.ChapterRoute(args[0], args[1:])
			if err != nil {
				return WrapExitError(ExitCommandError, "cannot build route", err)
			}
			return opts.writeRoute(cmd, r)
		},
	}
	opts.bind(cmd)

	return cmd
}

func newSegmentsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "segments <name> <chapter> <segment>...",
		Short: "Generate a single-chapter route from named segments",
		Long: `Generate a chapter-timed route for one chapter. Each segment is NAME or
NAME:END, where END says what closes the segment:

  room=ROOM       entering the room
  checkpoint=N    unlocking checkpoint N
  cassette        collecting the cassette
  heart           collecting the crystal heart
  berries=N       reaching N strawberries in the file
  complete        completing the chapter (the default)

The route resets whenever the chapter is restarted.

Example:
  splitkeeper new segments "City" 1a Start:room=s0 Chasm:checkpoint=2 Crossing -o city.yaml`,
		Args:          cobra.MinimumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			segments := make([]route.Segment, 0, len(args)-2)
			for _, arg := range args[2:] {
				seg, err := route.ParseSegment(arg)
				if err != nil {
					return WrapExitError(ExitCommandError, "cannot build route", err)
				}
				segments = append(segments, seg)
			}
			r, err := route.SegmentRoute(args[0], args[1], segments)
			if err != nil {
				return WrapExitError(ExitCommandError, "cannot build route", err)
			}
			return opts.writeRoute(cmd, r)
		},
	}
	opts.bind(cmd)

	return cmd
}

func newRoomsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rooms <name>",
		Short: "Record a route with one split per room while you play",
		Long: `Watch the autosplitter while you play through a chapter and write a
chapter-timed route with one split per room. Recording starts in the room
the game is in when the command starts (or the first room entered) and
ends when the chapter is completed. Rooms revisited later are not split
again.

Example:
  splitkeeper new rooms "Site B rooms" -o site-b.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRooms(opts, cmd, args[0])
		},
	}
	opts.bind(cmd)
	cmd.Flags().String("asi-path", opts.Config.ASIPath, "autosplitter snapshot file")
	cmd.Flags().Duration("poll-interval", opts.Config.PollInterval, "snapshot poll interval")

	return cmd
}

func runRooms(opts *WriteOptions, cmd *cobra.Command, name string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, finished := context.WithCancel(ctx)
	defer finished()

	logger := opts.logger()
	path := opts.Config.ASIPath
	if err := autosplitter.WaitForFile(ctx, path, logger); cleanExit(err) != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("cannot read snapshot %s", path), err)
	}

	rec := route.NewRoomRecorder()
	rooms := 0
	poller := autosplitter.NewPoller(path,
		autosplitter.WithInterval(opts.Config.PollInterval),
		autosplitter.WithLogger(logger),
		autosplitter.WithPollHook(func(snap ir.Snapshot) {
			if rec.Observe(snap) {
				finished()
				return
			}
			if n := rec.Rooms(); n != rooms {
				rooms = n
				logger.Info("recorded room", "rooms", n, "entered", snap.String("level_name"))
			}
		}),
	)
	if err := cleanExit(poller.Run(ctx)); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("cannot read snapshot %s", path), err)
	}

	r, err := rec.Route(name)
	if err != nil {
		return NewExitError(ExitCommandError, "stopped before the chapter was completed, no route written")
	}
	return opts.writeRoute(cmd, r)
}
