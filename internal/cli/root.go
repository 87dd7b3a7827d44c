package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/splitkeeper/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	// Config and Logger are set before any subcommand runs.
	Config config.Config
	Logger *slog.Logger

	viper *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the splitkeeper CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Config: config.Default(), viper: config.New()}

	cmd := &cobra.Command{
		Use:   "splitkeeper",
		Short: "splitkeeper - speedrun splits from live game state",
		Long: `An autosplitting timer driven by routes: ordered triggers over a live
game-state snapshot that split, skip and reset the run on their own.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.load(cmd)
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVarP(&opts.ConfigFile, "config", "c", "", "config file (default: splitkeeper.yaml in . or the user config dir)")
	pf.String("log-level", opts.Config.LogLevel, "log level (debug|info|warn|error)")
	pf.Bool("allow-expressions", false, "allow expression triggers in routes")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewDeathsCommand(opts))
	cmd.AddCommand(NewNewCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

// load binds the command's flags, reads the configuration and builds the
// logger. cmd.Flags() holds the inherited persistent flags by now.
func (o *RootOptions) load(cmd *cobra.Command) error {
	if o.viper == nil {
		o.viper = config.New()
	}
	if err := config.BindFlags(o.viper, cmd.Flags()); err != nil {
		return WrapExitError(ExitCommandError, "failed to bind flags", err)
	}
	cfg, err := config.Load(o.viper, o.ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	o.Config = cfg

	level := cfg.Level()
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(o.Logger)
	return nil
}

// logger returns the configured logger. Commands built without the root
// command (as in tests) log nowhere.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
