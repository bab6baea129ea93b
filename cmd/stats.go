package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/scoreloom-cli/internal/record"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		st, err := a.svc.Stats(cmdContext(cmd))
		if err != nil {
			return err
		}
		if statsJSON {
			return printJSON(cmd, st)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "records: %d\n", st.TotalRecords)
		fmt.Fprintf(out, "students: %d\n", st.Students)
		fmt.Fprintf(out, "subjects: %d\n", st.Subjects)
		for _, t := range record.Tracks {
			fmt.Fprintf(out, "%s: %d\n", t, st.PerTrack[t])
		}
		if !st.LatestEntry.IsZero() {
			fmt.Fprintf(out, "latest entry: %s\n", st.LatestEntry.Local().Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print statistics as JSON")
}
