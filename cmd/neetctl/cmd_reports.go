package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/neetprep/backend/internal/analytics"
	"github.com/neetprep/backend/internal/app"
)

var (
	reportJSON  bool
	reportsUser string
)

var reportCmd = &cobra.Command{
	Use:   "report <attemptID>",
	Short: "Print the analytics report of a submitted attempt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			att, err := a.Store.GetAttempt(ctx, args[0])
			if err != nil {
				return fmt.Errorf("attempt %s: %w", args[0], err)
			}
			report, err := a.Attempts.Report(ctx, att.UserID, att.ID)
			if err != nil {
				return err
			}
			if reportJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		})
	},
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Summarise every submitted attempt of a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			d, err := a.Attempts.Dashboard(ctx, reportsUser)
			if err != nil {
				return err
			}
			if reportJSON {
				return writeJSON(cmd.OutOrStdout(), d)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ATTEMPT\tTEST\tSCORE\tACCURACY\tCOMPLETION")
			for _, s := range d.Attempts {
				fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%d%%\t%d%%\n", s.AttemptID, s.Title, s.Score, s.MaxScore, s.Accuracy, s.Completion)
			}
			tw.Flush()

			fmt.Fprintln(cmd.OutOrStdout())
			printReport(cmd.OutOrStdout(), d.Overall)
			return nil
		})
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Print JSON")
	reportsCmd.Flags().BoolVar(&reportJSON, "json", false, "Print JSON")
	reportsCmd.Flags().StringVar(&reportsUser, "user", "", "User ID")
	reportsCmd.MarkFlagRequired("user")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReport(w io.Writer, r analytics.Report) {
	fmt.Fprintf(w, "Score %d/%d (%d%%)  accuracy %d%%  completion %d%%\n",
		r.Score, r.MaxScore, r.ScorePercent, r.Accuracy, r.Completion)
	fmt.Fprintf(w, "Correct %d  incorrect %d  unattempted %d  avg time %ds\n",
		r.Correct, r.Incorrect, r.Unattempted, r.AverageTime)

	if len(r.Topics) > 0 {
		fmt.Fprintln(w, "\nTopics (weakest first):")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, t := range analytics.WeakestTopics(r) {
			fmt.Fprintf(tw, "  %s\t%s\t%d/%d\t%s\n", t.Key, t.Chapter, t.Correct, t.Total, t.Level)
		}
		tw.Flush()
	}
	if len(r.Tags) > 0 {
		fmt.Fprintln(w, "\nMistakes:")
		for _, t := range r.Tags {
			fmt.Fprintf(w, "  %s: %d\n", t.Tag, t.Count)
		}
	}
}
