package cmd

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/scoreloom-cli/internal/analysis"
)

var (
	sumFilter   filterFlags
	sumGroupBy  string
	sumMarkdown bool
	sumJSON     bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Aggregate performance by subject, course, exam type, student or month",
	RunE: func(cmd *cobra.Command, args []string) error {
		by, err := analysis.ParseGroupBy(sumGroupBy)
		if err != nil {
			return err
		}
		f, err := sumFilter.filter()
		if err != nil {
			return err
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		rep, err := a.svc.Summarize(cmdContext(cmd), f, by)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch {
		case sumJSON:
			return printJSON(cmd, rep)
		case sumMarkdown:
			fmt.Fprint(out, rep.Markdown())
			return nil
		}
		if rep.Overall.Count == 0 {
			fmt.Fprintln(out, "(no records)")
			return nil
		}
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{string(rep.GroupBy), "Records", "Students", "Mean %", "Std", "Min", "Max", "Pass rate"})
		for _, g := range append(rep.Groups, rep.Overall) {
			table.Append([]string{
				g.Key, strconv.Itoa(g.Count), strconv.Itoa(g.Students),
				fmt.Sprintf("%.1f", g.MeanPercentage), fmt.Sprintf("%.1f", g.StdPercentage),
				fmt.Sprintf("%.1f", g.MinPercentage), fmt.Sprintf("%.1f", g.MaxPercentage),
				fmt.Sprintf("%.0f%%", g.PassRate),
			})
		}
		table.Render()
		if rep.Best != nil {
			fmt.Fprintf(out, "✓ Best subject: %s (%.1f%%)\n", rep.Best.Subject, rep.Best.Percentage)
		}
		for _, gap := range rep.TrackGaps {
			fmt.Fprintf(out, "- %s: mean %.1f%% vs target %.0f%% (%+.1f)\n", gap.Track, gap.Mean, gap.Target, gap.Gap)
		}
		for _, w := range rep.Warnings {
			fmt.Fprintf(out, "⚠ %s\n", w)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	sumFilter.register(summaryCmd)
	summaryCmd.Flags().StringVar(&sumGroupBy, "group-by", "subject", "grouping: subject, track, exam_type, track_subject, student or month")
	summaryCmd.Flags().BoolVar(&sumMarkdown, "markdown", false, "print the sectioned text report")
	summaryCmd.Flags().BoolVar(&sumJSON, "json", false, "print the report as JSON")
}
