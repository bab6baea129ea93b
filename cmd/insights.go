package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/scoreloom-cli/internal/record"
)

var (
	insTrack string
	insJSON  bool
)

var insightsCmd = &cobra.Command{
	Use:   "insights <student>",
	Short: "Show rule-based insights for one student",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var track record.Track
		if insTrack != "" {
			t, ok := record.LookupTrack(insTrack)
			if !ok {
				return fmt.Errorf("unknown --track %q (use JEE or NEET)", insTrack)
			}
			track = t
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.svc.Insights(cmdContext(cmd), args[0], track)
		if err != nil {
			return err
		}
		if insJSON {
			if list == nil {
				list = []string{}
			}
			return printJSON(cmd, list)
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintf(out, "(no records for %s)\n", args[0])
			return nil
		}
		for _, s := range list {
			fmt.Fprintf(out, "- %s\n", s)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(insightsCmd)
	insightsCmd.Flags().StringVar(&insTrack, "track", "", "course for readiness, key subject and trend insights (JEE or NEET)")
	insightsCmd.Flags().BoolVar(&insJSON, "json", false, "print insights as a JSON array")
}
