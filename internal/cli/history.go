package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/roach88/splitkeeper/internal/record"
	"github.com/roach88/splitkeeper/internal/route"
	"github.com/roach88/splitkeeper/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// SegmentSummary is the average of one subsegment across attempts.
type SegmentSummary struct {
	Split string `json:"split"`
	Level int    `json:"level"`
	Count int    `json:"count"`
	Mean  string `json:"mean,omitempty"`
}

// AttemptSummary is one recorded attempt.
type AttemptSummary struct {
	ID           string    `json:"id"`
	RecordedAt   time.Time `json:"recorded_at"`
	Completed    bool      `json:"completed"`
	PersonalBest bool      `json:"personal_best"`
	Final        string    `json:"final,omitempty"`
}

// HistoryResult summarizes the recorded attempts on a route.
type HistoryResult struct {
	Route     string           `json:"route"`
	Attempts  int              `json:"attempts"`
	Completed int              `json:"completed"`
	Best      string           `json:"best,omitempty"`
	Segments  []SegmentSummary `json:"segments"`
	Recent    []AttemptSummary `json:"recent"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <route>",
		Short: "Show recorded attempts and average segment times",
		Long: `Summarize the attempts recorded in the history database for a route: how
many were started and completed, the best completed time, the average time
of every subsegment and the most recent attempts.

Attempts are recorded by run when history_db is configured.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "number of recent attempts to list")
	cmd.Flags().String("history-db", "", "run history database")

	return cmd
}

func runHistory(opts *HistoryOptions, routePath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if opts.Config.HistoryDB == "" {
		return NewExitError(ExitCommandError, "no history database configured (set history_db or --history-db)")
	}
	r, err := loadRoute(routePath, opts.Config.AllowExpressions)
	if err != nil {
		return LoadFailure(routePath, err)
	}

	st, err := store.Open(opts.Config.HistoryDB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open history database", err)
	}
	defer st.Close()

	ctx := commandContext(cmd)
	stats, err := st.Stats(ctx, r.Name)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read history", err)
	}
	averages, err := st.Averages(ctx, r.Name)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read history", err)
	}
	attempts, err := st.Attempts(ctx, r.Name, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read history", err)
	}
	formatter.VerboseLog("Read %d attempt(s) from %s", stats.Attempts, opts.Config.HistoryDB)

	result := HistoryResult{
		Route:     r.Name,
		Attempts:  stats.Attempts,
		Completed: stats.Completed,
		Best:      optTime(stats.Best),
		Segments:  summarizeSegments(r, averages),
		Recent: lo.Map(attempts, func(a store.Attempt, _ int) AttemptSummary {
			return AttemptSummary{
				ID:           a.ID.String(),
				RecordedAt:   a.RecordedAt,
				Completed:    a.Completed,
				PersonalBest: a.PersonalBest,
				Final:        optTime(a.Final),
			}
		}),
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	writeHistoryText(cmd, result)
	return nil
}

// summarizeSegments lists the averages in route order. Averages for
// splits no longer in the route are left out.
func summarizeSegments(r *route.Route, averages []store.Average) []SegmentSummary {
	byKey := lo.KeyBy(averages, func(a store.Average) record.Key {
		return record.Key{ID: a.SplitID, Level: a.Level}
	})
	var out []SegmentSummary
	for sub := range r.AllSubsegments() {
		a, ok := byKey[record.KeyOf(sub)]
		if !ok {
			continue
		}
		out = append(out, SegmentSummary{
			Split: r.Path(sub.Split),
			Level: sub.Level,
			Count: a.Count,
			Mean:  optTime(a.Mean),
		})
	}
	return out
}

func writeHistoryText(cmd *cobra.Command, result HistoryResult) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: %d attempt(s), %d completed, best %s\n",
		result.Route, result.Attempts, result.Completed, orDash(result.Best))

	if len(result.Segments) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%-32s %6s %12s\n", "segment", "count", "average")
		for _, s := range result.Segments {
			label := strings.Repeat("  ", s.Level) + s.Split
			fmt.Fprintf(w, "%-32s %6d %12s\n", label, s.Count, orDash(s.Mean))
		}
	}

	if len(result.Recent) > 0 {
		fmt.Fprintln(w)
		for _, a := range result.Recent {
			mark := ""
			if a.PersonalBest {
				mark = " PB"
			}
			fmt.Fprintf(w, "%s  %-12s%s\n", a.RecordedAt.Local().Format(time.DateTime), orDash(a.Final), mark)
		}
	}
}
