package cmd

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/scoreloom-cli/internal/export"
	"github.com/KaramelBytes/scoreloom-cli/internal/utils"
)

var (
	exportFilter filterFlags
	exportFormat string
	exportOutput string
	templateOut  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export records as CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		f, err := exportFilter.filter()
		if err != nil {
			return err
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		var buf bytes.Buffer
		n, err := a.svc.Export(cmdContext(cmd), &buf, f, format)
		if err != nil {
			return err
		}
		if exportOutput == "-" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		path := exportOutput
		if path == "" {
			path = export.DefaultFileName(time.Now(), format)
		}
		if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d record(s) to %s\n", n, path)
		return nil
	},
}

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write a CSV import template with sample rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		var buf bytes.Buffer
		if err := export.WriteTemplate(&buf); err != nil {
			return err
		}
		if templateOut == "-" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := utils.SafeWriteFile(templateOut, buf.Bytes()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Template written: %s\n", templateOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(templateCmd)
	exportFilter.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format: csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file, - for stdout (default student_performance_data_<timestamp>.<format>)")
	templateCmd.Flags().StringVarP(&templateOut, "output", "o", "student_performance_template.csv", "output file, - for stdout")
}
