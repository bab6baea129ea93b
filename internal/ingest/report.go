package ingest

import (
	"fmt"
	"strings"
)

// Report describes what an import did with its input.
type Report struct {
	BatchID                string   `json:"batch_id"`
	Source                 string   `json:"source,omitempty"`
	Encoding               string   `json:"encoding"`
	Delimiter              rune     `json:"-"`
	Columns                []string `json:"columns"`
	RowsRead               int      `json:"rows_read"`
	Accepted               int      `json:"accepted"`
	DroppedEmpty           int      `json:"dropped_empty"`
	DroppedMissingRequired int      `json:"dropped_missing_required"`
	DroppedInvalidNumeric  int      `json:"dropped_invalid_numeric"`
	DroppedOutOfRange      int      `json:"dropped_out_of_range"`
	Warnings               []string `json:"warnings,omitempty"`
}

// DelimiterName is the human name of the detected delimiter ("comma", "tab", ...).
func (r Report) DelimiterName() string { return delimiterName(r.Delimiter) }

// Dropped is the number of rows removed for any reason.
func (r Report) Dropped() int {
	return r.DroppedEmpty + r.DroppedMissingRequired + r.DroppedInvalidNumeric + r.DroppedOutOfRange
}

// Markdown renders the report as plain sectioned text.
func (r Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[IMPORT SUMMARY]\n")
	if r.Source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Source))
	}
	b.WriteString(fmt.Sprintf("Batch: %s\n", r.BatchID))
	b.WriteString(fmt.Sprintf("Encoding: %s, delimiter: %s\n", r.Encoding, r.DelimiterName()))
	b.WriteString(fmt.Sprintf("Columns: %s\n", strings.Join(r.Columns, ", ")))
	b.WriteString(fmt.Sprintf("Rows: %d read, %d accepted, %d dropped\n", r.RowsRead, r.Accepted, r.Dropped()))
	if r.Dropped() > 0 {
		b.WriteString("\n[DROPPED ROWS]\n")
		for _, d := range []struct {
			label string
			n     int
		}{
			{"empty", r.DroppedEmpty},
			{"missing name or subject", r.DroppedMissingRequired},
			{"invalid marks", r.DroppedInvalidNumeric},
			{"out of range", r.DroppedOutOfRange},
		} {
			if d.n > 0 {
				b.WriteString(fmt.Sprintf("- %s: %d\n", d.label, d.n))
			}
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}
	return b.String()
}
