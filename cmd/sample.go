package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Load a small demonstration data set",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		n, err := a.svc.LoadSample(cmdContext(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Loaded %d sample record(s)\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
}
