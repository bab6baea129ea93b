package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/scoreloom-cli/internal/record"
)

// Options controls how raw tables are normalized into records.
type Options struct {
	// Source names the input in the report (usually the file name).
	Source string
	// Now supplies the current time for Month/Date defaults. Defaults to time.Now.
	Now func() time.Time
	// Validator applies the record policy. Defaults to the permissive policy.
	Validator *record.Validator
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) validator() *record.Validator {
	if o.Validator != nil {
		return o.Validator
	}
	return record.NewValidator(false)
}

// Result is the outcome of a successful parse.
type Result struct {
	Records []record.PerformanceRecord
	Report  Report
}

// table is a decoded header plus data rows, cells untrimmed.
type table struct {
	header    []string
	rows      [][]string
	encoding  string
	delimiter rune
}

// Parse detects the encoding and delimiter of blob and normalizes its rows.
// Structural problems are returned as errors wrapping the record sentinels;
// row-level problems are dropped and counted in the report.
func Parse(blob []byte, opt Options) (*Result, error) {
	t, err := readTable(blob)
	if err != nil {
		return nil, err
	}
	return normalize(t, opt)
}

func readTable(blob []byte) (*table, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("%w: input is empty", record.ErrUnparsableInput)
	}
	for _, enc := range encodings {
		text, ok := enc.decode(blob)
		if !ok {
			continue
		}
		for _, d := range delimiters {
			t, err := splitTable(text, d)
			if err != nil {
				continue
			}
			if len(t.header) > 1 && len(t.rows) > 0 {
				t.encoding = enc.Name
				t.delimiter = d
				return t, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no encoding/delimiter combination produced a header with at least two columns and a data row (tried utf-8, utf-8-sig, latin-1, windows-1252 with comma, semicolon, tab)", record.ErrUnparsableInput)
}

func splitTable(text string, delim rune) (*table, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := &table{header: header}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(t.rows)+1, err)
		}
		if len(rec) > len(header) {
			// Extra cells are tolerated only when they are empty (trailing delimiters).
			for _, extra := range rec[len(header):] {
				if strings.TrimSpace(extra) != "" {
					return nil, fmt.Errorf("row %d has %d fields, header has %d", len(t.rows)+1, len(rec), len(header))
				}
			}
			rec = rec[:len(header)]
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

// normalize maps a decoded table onto records.
func normalize(t *table, opt Options) (*Result, error) {
	rep := Report{
		BatchID:   uuid.NewString(),
		Source:    opt.Source,
		Encoding:  t.encoding,
		Delimiter: t.delimiter,
		RowsRead:  len(t.rows),
	}
	index := map[string]int{}
	for i, h := range t.header {
		name := strings.TrimSpace(h)
		rep.Columns = append(rep.Columns, name)
		if _, dup := index[name]; dup && name != "" {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("duplicate column %q; using the first occurrence", name))
			continue
		}
		index[name] = i
	}
	var missing []string
	for _, col := range record.RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &record.ColumnsError{Missing: missing, Available: rep.Columns, Required: record.RequiredColumns}
	}
	known := map[string]bool{}
	for _, c := range append(append([]string{}, record.RequiredColumns...), record.OptionalColumns...) {
		known[c] = true
	}
	for _, c := range rep.Columns {
		if c != "" && !known[c] && c != "id" && c != "created_at" {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("ignored unknown column %q", c))
		}
	}

	cell := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	// Drop rows where every required cell is empty.
	rows := make([][]string, 0, len(t.rows))
	for _, row := range t.rows {
		empty := true
		for _, col := range record.RequiredColumns {
			if cell(row, col) != "" {
				empty = false
				break
			}
		}
		if empty {
			rep.DroppedEmpty++
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows left after removing empty rows", record.ErrNoValidRows)
	}

	// Marks and Highest_Mark must be numeric.
	kept := rows[:0]
	for _, row := range rows {
		_, okM := record.ParseNumber(cell(row, record.ColMarks))
		_, okH := record.ParseNumber(cell(row, record.ColHighestMark))
		if !okM || !okH {
			rep.DroppedInvalidNumeric++
			continue
		}
		kept = append(kept, row)
	}
	rows = kept
	if rep.DroppedInvalidNumeric > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("removed %d rows with invalid Marks or Highest_Mark values", rep.DroppedInvalidNumeric))
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows left after numeric validation", record.ErrNoValidRows)
	}

	// Column-wide defaults for optional columns that are absent or entirely empty.
	now := opt.now()
	columnDefaults := map[string]string{
		record.ColMonth:    now.Format("January"),
		record.ColDate:     now.Format(record.DateLayout),
		record.ColExamType: record.DefaultExamType,
	}
	fill := map[string]string{}
	for _, col := range record.OptionalColumns {
		if columnEmpty(rows, col, cell) {
			if def, ok := columnDefaults[col]; ok {
				fill[col] = def
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %s absent or empty; defaulted to %q", col, def))
			}
		}
	}

	v := opt.validator()
	out := make([]record.PerformanceRecord, 0, len(rows))
	for _, row := range rows {
		fields := make(map[string]string, len(record.RequiredColumns)+len(record.OptionalColumns))
		for _, col := range record.RequiredColumns {
			fields[col] = cell(row, col)
		}
		for _, col := range record.OptionalColumns {
			if def, ok := fill[col]; ok {
				fields[col] = def
				continue
			}
			fields[col] = cell(row, col)
		}
		rec, err := v.FromFields(fields)
		switch {
		case err == nil:
			out = append(out, rec)
		case errors.Is(err, record.ErrMissingRequiredField):
			rep.DroppedMissingRequired++
		case errors.Is(err, record.ErrOutOfRange):
			rep.DroppedOutOfRange++
		default:
			return nil, err
		}
	}
	if rep.DroppedMissingRequired > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("removed %d rows with a blank Name or Subject", rep.DroppedMissingRequired))
	}
	if rep.DroppedOutOfRange > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("removed %d rows rejected by strict validation", rep.DroppedOutOfRange))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: every row was rejected by validation", record.ErrNoValidRows)
	}
	rep.Accepted = len(out)
	return &Result{Records: out, Report: rep}, nil
}

func columnEmpty(rows [][]string, col string, cell func([]string, string) string) bool {
	for _, row := range rows {
		if cell(row, col) != "" {
			return false
		}
	}
	return true
}
