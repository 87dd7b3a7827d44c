package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/splitkeeper/internal/compiler"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <legacy.json>",
		Short: "Convert an unversioned JSON route to the current format",
		Long: `Convert a route in the old unversioned JSON format into a version 2 YAML
document. Triggers written as expression strings stay expressions, so the
converted route needs --allow-expressions.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return LoadFailure(args[0], err)
			}
			out, err := compiler.ImportLegacy(data)
			if err != nil {
				return LoadFailure(args[0], err)
			}
			return opts.write(cmd, out)
		},
	}
	opts.bind(cmd)

	return cmd
}
