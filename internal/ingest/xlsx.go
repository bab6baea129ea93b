package ingest

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/scoreloom-cli/internal/record"
)

// ParseXLSX reads the first worksheet of a workbook and normalizes it like a delimited file.
func ParseXLSX(data []byte, opt Options) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: input is empty", record.ErrUnparsableInput)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open xlsx: %v", record.ErrUnparsableInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", record.ErrUnparsableInput)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", record.ErrUnparsableInput, sheets[0], err)
	}
	if len(rows) < 2 || len(rows[0]) < 2 {
		return nil, fmt.Errorf("%w: sheet %q has no header with at least two columns and a data row", record.ErrUnparsableInput, sheets[0])
	}
	// GetRows omits trailing empty cells; short rows read as empty.
	header := rows[0]
	t := &table{header: header, encoding: "xlsx"}
	for _, row := range rows[1:] {
		if len(row) > len(header) {
			row = row[:len(header)]
		}
		t.rows = append(t.rows, row)
	}
	res, err := normalize(t, opt)
	if err != nil {
		return nil, err
	}
	res.Report.Warnings = append(res.Report.Warnings, fmt.Sprintf("read sheet %q", sheets[0]))
	return res, nil
}
