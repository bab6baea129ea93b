package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/scoreloom-cli/internal/record"
)

var addFields = map[string]*string{}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add one performance record",
	Long:  "Add one performance record. Percentage is derived from --marks and --highest when omitted; month and date default to today.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		fields := make(map[string]string, len(addFields))
		for col, v := range addFields {
			fields[col] = *v
		}
		r, err := a.svc.AddRecord(cmdContext(cmd), fields)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Record added: %s, %s (%s) %.1f%%\n", r.Name, r.Subject, r.Track, r.Percentage)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	for _, f := range []struct{ flag, col, usage string }{
		{"name", record.ColName, "student name (required)"},
		{"subject", record.ColSubject, "subject (required)"},
		{"marks", record.ColMarks, "marks obtained (required)"},
		{"highest", record.ColHighestMark, "highest mark of the exam (required)"},
		{"track", record.ColTrack, "course: JEE or NEET (default JEE)"},
		{"month", record.ColMonth, "month name (default current month)"},
		{"date", record.ColDate, "exam date as DD/MM/YYYY (default today)"},
		{"topic", record.ColTopic, "topic"},
		{"rank", record.ColRank, "rank, 0 when unranked"},
		{"average", record.ColAverageMarks, "class average marks"},
		{"percentage", record.ColPercentage, "percentage (derived when omitted)"},
		{"exam-type", record.ColExamType, "exam type, e.g. DCT, Weekly, Mock"},
	} {
		v := new(string)
		addFields[f.col] = v
		addCmd.Flags().StringVar(v, f.flag, "", f.usage)
	}
}
