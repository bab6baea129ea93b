package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/scoreloom-cli/internal/record"
	"github.com/KaramelBytes/scoreloom-cli/internal/utils"
)

var (
	importAs     string
	importReport bool
	importJSON   bool
)

var importCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Bulk import records from a CSV, TSV or XLSX file",
	Long:  "Bulk import records. Encoding and delimiter are detected; rows without name, subject or numeric marks are dropped and counted. The import stops at the first duplicate record.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := args[0]
		data, err := utils.ReadInput(src, os.Stdin)
		if err != nil {
			return err
		}
		name := importAs
		if name == "" {
			name = filepath.Base(src)
			if src == "-" {
				name = "stdin.csv"
			}
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		res, err := a.svc.BulkImport(cmdContext(cmd), name, data)
		if res != nil && importJSON {
			if jerr := printJSON(cmd, res); jerr != nil {
				return jerr
			}
		}
		if err != nil {
			var de *record.DuplicateError
			if res != nil && errors.As(err, &de) {
				fmt.Fprintf(out, "⚠ Stopped at duplicate row %d; %d record(s) committed before it\n", de.Index+1, res.Added)
			}
			return err
		}
		if importJSON {
			return nil
		}
		rep := res.Report
		fmt.Fprintf(out, "✓ Imported %d record(s) from %s (%s, %s)\n", res.Added, name, rep.Encoding, rep.DelimiterName())
		if n := rep.Dropped(); n > 0 {
			fmt.Fprintf(out, "⚠ Dropped %d row(s)\n", n)
		}
		for _, w := range rep.Warnings {
			fmt.Fprintf(out, "⚠ %s\n", w)
		}
		if importReport {
			fmt.Fprintln(out)
			fmt.Fprint(out, rep.Markdown())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importAs, "as", "", "file name used for format detection (e.g. scores.xlsx when reading stdin)")
	importCmd.Flags().BoolVar(&importReport, "report", false, "print the full import report")
	importCmd.Flags().BoolVar(&importJSON, "json", false, "print the import result as JSON")
}
