package cmd

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/scoreloom-cli/internal/record"
)

var (
	listFilter   filterFlags
	listJSON     bool
	listLimit    int
	listStudents bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored records, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmdContext(cmd)
		out := cmd.OutOrStdout()

		if listStudents {
			names, err := a.svc.Students(ctx)
			if err != nil {
				return err
			}
			if listJSON {
				return printJSON(cmd, names)
			}
			if len(names) == 0 {
				fmt.Fprintln(out, "(no students)")
			}
			for _, n := range names {
				fmt.Fprintf(out, "- %s\n", n)
			}
			return nil
		}

		f, err := listFilter.filter()
		if err != nil {
			return err
		}
		recs, err := a.svc.ListRecords(ctx, f)
		if err != nil {
			return err
		}
		if listLimit > 0 && len(recs) > listLimit {
			recs = recs[:listLimit]
		}
		if listJSON {
			if recs == nil {
				recs = []record.PerformanceRecord{}
			}
			return printJSON(cmd, recs)
		}
		if len(recs) == 0 {
			fmt.Fprintln(out, "(no records)")
			return nil
		}
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"ID", "Name", "Course", "Date", "Subject", "Exam", "Marks", "Highest", "%", "Rank"})
		for _, r := range recs {
			rank := "-"
			if r.Rank > 0 {
				rank = strconv.Itoa(r.Rank)
			}
			table.Append([]string{
				strconv.FormatInt(r.ID, 10), r.Name, string(r.Track), r.Date, r.Subject, r.ExamType,
				record.FormatNumber(r.Marks), record.FormatNumber(r.HighestMark),
				fmt.Sprintf("%.1f", r.Percentage), rank,
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listFilter.register(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON instead of a table")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "show at most this many records")
	listCmd.Flags().BoolVar(&listStudents, "students", false, "list distinct student names instead of records")
}
