package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/splitkeeper/internal/autosplitter"
	"github.com/roach88/splitkeeper/internal/deaths"
	"github.com/roach88/splitkeeper/internal/ir"
)

// DeathsOptions holds flags for the deaths command.
type DeathsOptions struct {
	*RootOptions
	Max int
}

// NewDeathsCommand creates the deaths command.
func NewDeathsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeathsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "deaths",
		Short: "Count deaths per chapter while you play",
		Long: `Follow the autosplitter and list the rooms you died in, per chapter.
The list is printed again on every death, showing at most --max rooms per
chapter, and printed in full when interrupted. Starting a new file clears
the counts.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeaths(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Max, "max", 5, "rooms listed per chapter while playing")
	cmd.Flags().String("asi-path", opts.Config.ASIPath, "autosplitter snapshot file")
	cmd.Flags().Duration("poll-interval", opts.Config.PollInterval, "snapshot poll interval")

	return cmd
}

func runDeaths(opts *DeathsOptions, cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := opts.logger()
	path := opts.Config.ASIPath
	if err := autosplitter.WaitForFile(ctx, path, logger); err != nil {
		return cleanExit(err)
	}

	formatter := opts.formatter(cmd)
	counter := deaths.NewCounter()
	last := -1
	var printErr error
	poller := autosplitter.NewPoller(path,
		autosplitter.WithInterval(opts.Config.PollInterval),
		autosplitter.WithLogger(logger),
		autosplitter.WithPollHook(func(snap ir.Snapshot) {
			counter.Observe(snap)
			if n := counter.Total(); n != last && printErr == nil {
				last = n
				if !formatter.JSON() {
					_, printErr = fmt.Fprint(cmd.OutOrStdout(), counter.Format(opts.Max))
				}
			}
		}),
	)
	if err := cleanExit(poller.Run(ctx)); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("cannot read snapshot %s", path), err)
	}
	if printErr != nil {
		return printErr
	}

	if formatter.JSON() {
		return formatter.Success(map[string]any{"total": counter.Total(), "rooms": counter.Rooms()})
	}
	_, err := fmt.Fprint(cmd.OutOrStdout(), "\n"+counter.Format(0))
	return err
}
