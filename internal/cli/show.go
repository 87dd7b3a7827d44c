package cli

import (
	"fmt"
	"strings"

	"github.com/aarondl/opt/null"
	"github.com/spf13/cobra"

	"github.com/roach88/splitkeeper/internal/record"
	"github.com/roach88/splitkeeper/internal/route"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	PB    string
	Golds string
}

// SplitRecord is one split of the personal best.
type SplitRecord struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Level int    `json:"level"`
	Time  string `json:"time,omitempty"`
	Gold  string `json:"gold,omitempty"`
}

// ShowResult is the personal best of a route.
type ShowResult struct {
	Route     string        `json:"route"`
	Complete  bool          `json:"complete"`
	Splits    []SplitRecord `json:"splits"`
	SumOfBest string        `json:"sum_of_best,omitempty"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <route>",
		Short: "Show the personal best and sum of best",
		Long: `Print the personal-best time of every split, indented by level, with the
gold of the segment each split closes and the sum of best.

Records default to <route>.pb.yaml and <route>.golds.yaml beside the route.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.PB, "pb", "", "personal best file")
	cmd.Flags().StringVar(&opts.Golds, "golds", "", "golds file")

	return cmd
}

func runShow(opts *ShowOptions, routePath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	r, err := loadRoute(routePath, opts.Config.AllowExpressions)
	if err != nil {
		return LoadFailure(routePath, err)
	}
	paths := recordPaths(routePath, opts.PB, opts.Golds)
	formatter.VerboseLog("Records: %s, %s", paths.PB, paths.Golds)
	pb, golds, err := loadRecords(paths)
	if err != nil {
		return err
	}

	result := buildShowResult(r, pb, golds)
	if formatter.JSON() {
		return formatter.Success(result)
	}
	writeShowText(cmd, result)
	return nil
}

func buildShowResult(r *route.Route, pb *record.Times, golds *record.Golds) ShowResult {
	result := ShowResult{
		Route:     r.Name,
		Complete:  pb.Complete(r),
		Splits:    make([]SplitRecord, 0, len(r.Splits())),
		SumOfBest: optTime(record.SumOfBest(r, golds)),
	}
	for _, s := range r.Splits() {
		sr := SplitRecord{Name: s.Name(), Path: r.Path(s), Level: s.Level}
		if t, ok := pb.Get(s.ID); ok {
			sr.Time = optTime(t)
		}
		if g, ok := golds.Get(record.Key{ID: s.ID, Level: s.Level}); ok {
			sr.Gold = optTime(g)
		}
		result.Splits = append(result.Splits, sr)
	}
	return result
}

func writeShowText(cmd *cobra.Command, result ShowResult) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, result.Route)
	for _, s := range result.Splits {
		label := strings.Repeat("  ", s.Level) + s.Name
		fmt.Fprintf(w, "%-32s %12s %12s\n", label, orDash(s.Time), orDash(s.Gold))
	}
	if !result.Complete {
		fmt.Fprintln(w, "(personal best incomplete)")
	}
	fmt.Fprintf(w, "sum of best: %s\n", orDash(result.SumOfBest))
}

// optTime renders a time for display; no value renders as "".
func optTime(v null.Val[int64]) string {
	if t, ok := v.Get(); ok {
		return record.FormatSplit(t, 3, false)
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
