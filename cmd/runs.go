package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/meridian-grc/riskflow/internal/audit"
	"github.com/meridian-grc/riskflow/internal/model"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect review run history",
	Long:  "Commands for listing, viewing, and summarizing stored review runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List review runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return eris.New("runs commands require a store (set store.driver to sqlite or postgres)")
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		route, _ := cmd.Flags().GetString("route")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, audit.RunFilter{
			Status: model.TerminalStatus(status),
			Route:  route,
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the full audit record of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return eris.New("runs commands require a store (set store.driver to sqlite or postgres)")
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		record, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return eris.New("runs commands require a store (set store.driver to sqlite or postgres)")
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		runs, err := st.ListRuns(ctx, audit.RunFilter{Limit: 10000})
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		stats := computeRunStats(runs)
		formatRunStats(os.Stdout, stats)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by terminal status (READY, NEED_INFO, ESCALATE)")
	runsListCmd.Flags().String("route", "", "filter by route label")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// runStats holds aggregate statistics computed from a set of runs.
type runStats struct {
	Total     int
	Ready     int
	NeedInfo  int
	Escalated int
	AvgScore  float64
	Routes    map[string]int
}

// computeRunStats computes aggregate statistics from a list of run summaries.
func computeRunStats(runs []audit.RunSummary) runStats {
	s := runStats{Routes: map[string]int{}}
	s.Total = len(runs)

	var scoreSum float64
	var scored int

	for _, r := range runs {
		switch r.TerminalStatus {
		case model.StatusReady:
			s.Ready++
		case model.StatusNeedInfo:
			s.NeedInfo++
		case model.StatusEscalate:
			s.Escalated++
		}
		if r.RouteTaken != "" {
			s.Routes[r.RouteTaken]++
		}
		if r.RiskScore != nil {
			scoreSum += *r.RiskScore
			scored++
		}
	}

	if scored > 0 {
		s.AvgScore = scoreSum / float64(scored)
	}
	return s
}

// formatRunsList writes a tabular list of run summaries to w.
func formatRunsList(out io.Writer, runs []audit.RunSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN_ID\tTIMESTAMP\tINTENT\tSTATUS\tROUTE\tSCORE\tTIER")
	_, _ = fmt.Fprintln(w, "------\t---------\t------\t------\t-----\t-----\t----")

	for _, r := range runs {
		score := "-"
		if r.RiskScore != nil {
			score = fmt.Sprintf("%.1f", *r.RiskScore)
		}
		tier := string(r.RiskTier)
		if tier == "" {
			tier = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.RunID,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Intent,
			r.TerminalStatus,
			r.RouteTaken,
			score,
			tier,
		)
	}
	_ = w.Flush()
}

// formatRunStats writes aggregate statistics to w.
func formatRunStats(out io.Writer, s runStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Ready:\t%d\n", s.Ready)
	_, _ = fmt.Fprintf(w, "Need info:\t%d\n", s.NeedInfo)
	_, _ = fmt.Fprintf(w, "Escalated:\t%d\n", s.Escalated)
	_, _ = fmt.Fprintf(w, "Avg risk score:\t%.1f\n", s.AvgScore)
	_ = w.Flush()

	if len(s.Routes) > 0 {
		fmt.Fprintln(out, "\nRoutes:")
		rw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for route, count := range s.Routes {
			_, _ = fmt.Fprintf(rw, "  %s\t%d\n", route, count)
		}
		_ = rw.Flush()
	}
}
