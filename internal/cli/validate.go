package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/roach88/splitkeeper/internal/compiler"
)

// RouteCheck is the validation outcome of one route file.
type RouteCheck struct {
	Path   string                     `json:"path"`
	Valid  bool                       `json:"valid"`
	Name   string                     `json:"name,omitempty"`
	Splits int                        `json:"splits,omitempty"`
	Hash   string                     `json:"hash,omitempty"`
	Pinned int                        `json:"pinned,omitempty"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool         `json:"valid"`
	Routes []RouteCheck `json:"routes"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	PinIDs bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <route>...",
		Short: "Validate route documents",
		Long: `Compile route documents (YAML, JSON or CUE) without running them.

Every authoring error in a route is reported, with its line when known:
unknown trigger fields, kind mismatches, disallowed expressions and a final
piece that is not a top-level split.

Splits without an id get one derived from their names, so renaming them
loses their records. --pin-ids writes the derived ids into valid YAML
routes; run does this automatically.

Exit codes:
  0 - All routes valid
  1 - One or more routes have errors
  2 - A route could not be read or has an unsupported version`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.PinIDs, "pin-ids", false, "write derived split ids into valid YAML routes")

	return cmd
}

func runValidate(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	result := ValidationResult{Valid: true, Routes: make([]RouteCheck, 0, len(paths))}
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)

		r, err := loadRoute(path, opts.Config.AllowExpressions)
		if err != nil {
			problems, ok := routeProblems(err)
			if !ok {
				if errors.Is(err, fs.ErrNotExist) {
					return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("route not found: %s", path))
				}
				return outputValidateError(formatter, ErrCodeGeneric, LoadFailure(path, err).Error())
			}
			result.Valid = false
			result.Routes = append(result.Routes, RouteCheck{Path: path, Errors: problems})
			continue
		}

		rc := RouteCheck{
			Path:   path,
			Valid:  true,
			Name:   r.Name,
			Splits: len(r.Splits()),
			Hash:   r.Hash(),
		}
		if opts.PinIDs {
			if rc.Pinned, err = pinRouteIDs(path, opts.Config.AllowExpressions); err != nil {
				return outputValidateError(formatter, ErrCodeWriteFailed, fmt.Sprintf("cannot write split ids into %s: %v", path, err))
			}
		}
		result.Routes = append(result.Routes, rc)
	}

	if formatter.JSON() {
		return outputValidateJSON(formatter, result)
	}
	return outputValidateText(formatter, result)
}

func outputValidateJSON(formatter *OutputFormatter, result ValidationResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if !result.Valid {
		response.Status = "error"
		response.Error = &CLIError{Code: ErrCodeGeneric, Message: "route validation failed"}
	}

	encoder := json.NewEncoder(formatter.Writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, "route validation failed")
	}
	return nil
}

func outputValidateText(formatter *OutputFormatter, result ValidationResult) error {
	w := formatter.Writer
	failed := 0
	for _, rc := range result.Routes {
		if rc.Valid {
			fmt.Fprintf(w, "✓ %s: %s (%d splits)\n", rc.Path, rc.Name, rc.Splits)
			if rc.Pinned > 0 {
				fmt.Fprintf(w, "  wrote %d split id(s)\n", rc.Pinned)
			}
			formatter.VerboseLog("  hash %s", rc.Hash)
			continue
		}
		failed++
		fmt.Fprintf(w, "✗ %s\n", rc.Path)
		for _, e := range rc.Errors {
			if e.Line > 0 {
				fmt.Fprintf(w, "  line %d: [%s] %s: %s\n", e.Line, e.Code, e.Field, e.Message)
			} else {
				fmt.Fprintf(w, "  [%s] %s: %s\n", e.Code, e.Field, e.Message)
			}
		}
	}

	if failed > 0 {
		fmt.Fprintf(w, "\n%d of %d route(s) invalid\n", failed, len(result.Routes))
		return NewExitError(ExitFailure, fmt.Sprintf("%d route(s) invalid", failed))
	}
	fmt.Fprintln(w, "✓ All routes valid")
	return nil
}

// outputValidateError outputs a command-level error (unreadable file).
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	if formatter.JSON() {
		if err := formatter.Error(code, message, nil); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "✗ %s\n", message)
	}
	return NewExitError(ExitCommandError, message)
}
