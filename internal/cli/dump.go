package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/splitkeeper/internal/autosplitter"
	"github.com/roach88/splitkeeper/internal/ir"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Follow bool
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the live game-state snapshot",
		Long: `Print every field of the snapshot the autosplitter publishes. With --follow
the snapshot is printed again whenever it changes, until interrupted.

Use this to find the field values a trigger should match.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Follow, "follow", "f", false, "print again on every change")
	cmd.Flags().String("asi-path", opts.Config.ASIPath, "autosplitter snapshot file")
	cmd.Flags().Duration("poll-interval", opts.Config.PollInterval, "snapshot poll interval (with --follow)")

	return cmd
}

func runDump(opts *DumpOptions, cmd *cobra.Command) error {
	path := opts.Config.ASIPath
	if !opts.Follow {
		rec, err := autosplitter.ReadFile(path)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("cannot read snapshot %s", path), err)
		}
		return printSnapshot(opts, cmd, rec.Snapshot())
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := opts.logger()
	if err := autosplitter.WaitForFile(ctx, path, logger); err != nil {
		return cleanExit(err)
	}

	var last string
	var printErr error
	poller := autosplitter.NewPoller(path,
		autosplitter.WithInterval(opts.Config.PollInterval),
		autosplitter.WithLogger(logger),
		autosplitter.WithPollHook(func(snap ir.Snapshot) {
			if text := snap.Format(); text != last && printErr == nil {
				last = text
				printErr = printSnapshot(opts, cmd, snap)
			}
		}),
	)
	if err := cleanExit(poller.Run(ctx)); err != nil {
		return err
	}
	return printErr
}

func printSnapshot(opts *DumpOptions, cmd *cobra.Command, snap ir.Snapshot) error {
	formatter := opts.formatter(cmd)
	if formatter.JSON() {
		fields := make(map[string]any, len(snap))
		for k, v := range snap {
			fields[k] = ir.ToAny(v)
		}
		return formatter.Success(fields)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), snap.Format())
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// cleanExit treats cancellation as a normal way to stop.
func cleanExit(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
