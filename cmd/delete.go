package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	deleteID   int64
	deleteName string
	resetYes   bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete one record by id or every record of a student",
	RunE: func(cmd *cobra.Command, args []string) error {
		if (deleteID > 0) == (deleteName != "") {
			return fmt.Errorf("specify exactly one of --id or --name")
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmdContext(cmd)
		out := cmd.OutOrStdout()

		if deleteID > 0 {
			if err := a.svc.DeleteByID(ctx, deleteID); err != nil {
				return fmt.Errorf("record %d: %w", deleteID, err)
			}
			fmt.Fprintf(out, "✓ Record %d deleted\n", deleteID)
			return nil
		}
		n, err := a.svc.DeleteByName(ctx, deleteName)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintf(out, "⚠ No records found for %s\n", deleteName)
			return nil
		}
		fmt.Fprintf(out, "✓ Deleted %d record(s) for %s\n", n, deleteName)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every record and restart id numbering",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			return fmt.Errorf("refusing to delete every record without --yes")
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.svc.ResetAll(cmdContext(cmd)); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Database reset")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(resetCmd)
	deleteCmd.Flags().Int64Var(&deleteID, "id", 0, "record id")
	deleteCmd.Flags().StringVar(&deleteName, "name", "", "student name")
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "confirm deleting every record")
}
