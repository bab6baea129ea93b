package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/scoreloom-cli/internal/record"
)

// Format is an export file format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx", case-insensitively. Blank means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", CSV:
		return CSV, nil
	case XLSX:
		return XLSX, nil
	}
	return "", fmt.Errorf("unknown export format %q (use csv or xlsx)", s)
}

// ContentType is the MIME type of f.
func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// DefaultFileName is a timestamped export file name.
func DefaultFileName(now time.Time, f Format) string {
	return fmt.Sprintf("student_performance_data_%s.%s", now.Format("20060102_150405"), f)
}

// Header is the export column order: the import columns plus id and created_at.
var Header = []string{
	"id", record.ColName, record.ColTrack, record.ColMonth, record.ColDate, record.ColSubject, record.ColTopic,
	record.ColRank, record.ColPercentage, record.ColMarks, record.ColAverageMarks, record.ColHighestMark,
	record.ColExamType, "created_at",
}

// CreatedAtLayout formats created_at in exports.
const CreatedAtLayout = "2006-01-02 15:04:05.000000"

func createdText(r record.PerformanceRecord) string {
	if r.CreatedAt.IsZero() {
		return ""
	}
	return r.CreatedAt.UTC().Format(CreatedAtLayout)
}

func row(r record.PerformanceRecord) []string {
	return []string{
		strconv.FormatInt(r.ID, 10), r.Name, string(r.Track), r.Month, r.Date, r.Subject, r.Topic,
		strconv.Itoa(r.Rank), record.FormatNumber(r.Percentage), record.FormatNumber(r.Marks),
		record.FormatNumber(r.AverageMarks), record.FormatNumber(r.HighestMark), r.ExamType, createdText(r),
	}
}

// WriteCSV writes recs as comma-delimited UTF-8 with one header row. Numbers use the
// shortest form that parses back to the same value, so a re-import reproduces each dedup key.
func WriteCSV(w io.Writer, recs []record.PerformanceRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range recs {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("write record %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SheetName is the worksheet XLSX exports are written to.
const SheetName = "Records"

// WriteXLSX writes recs as a single-sheet workbook with the CSV columns.
func WriteXLSX(w io.Writer, recs []record.PerformanceRecord) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range recs {
		cells := []interface{}{
			r.ID, r.Name, string(r.Track), r.Month, r.Date, r.Subject, r.Topic,
			r.Rank, r.Percentage, r.Marks, r.AverageMarks, r.HighestMark, r.ExamType, createdText(r),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
			return fmt.Errorf("write record %d: %w", r.ID, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// Write dispatches on format.
func Write(w io.Writer, f Format, recs []record.PerformanceRecord) error {
	if f == XLSX {
		return WriteXLSX(w, recs)
	}
	return WriteCSV(w, recs)
}

// TemplateHeader is the column order of the import template.
var TemplateHeader = []string{
	record.ColName, record.ColTrack, record.ColMonth, record.ColDate, record.ColSubject, record.ColTopic,
	record.ColRank, record.ColMarks, record.ColAverageMarks, record.ColHighestMark, record.ColExamType,
}

var templateRows = [][]string{
	{"John Doe", "JEE", "September", "01/09/2025", "Math", "Algebra", "15", "85", "75", "95", "Weekly"},
	{"Jane Smith", "NEET", "September", "02/09/2025", "Biology", "Cell Biology", "8", "78", "72", "90", "DCT"},
}

// WriteTemplate writes a CSV import template with two sample rows.
func WriteTemplate(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TemplateHeader); err != nil {
		return err
	}
	if err := cw.WriteAll(templateRows); err != nil {
		return err
	}
	return cw.Error()
}
