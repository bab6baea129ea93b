package export

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/scoreloom-cli/internal/ingest"
	"github.com/KaramelBytes/scoreloom-cli/internal/record"
	"github.com/KaramelBytes/scoreloom-cli/internal/store"
)

func seeded(t *testing.T) (*store.SQLiteStore, []record.PerformanceRecord) {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(ctx, filepath.Join(t.TempDir(), "export.db"), store.Options{Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	in := []record.PerformanceRecord{
		{Name: "Doe, John", Track: record.TrackJEE, Month: "March", Date: "01/03/2024", Subject: "Physics",
			Topic: "Optics", Rank: 12, Percentage: 200.0 / 3, Marks: 40, AverageMarks: 35.25, HighestMark: 60, ExamType: "DCT"},
		{Name: "Asha", Track: record.TrackNEET, Month: "March", Date: "02/03/2024", Subject: "Biology",
			Topic: "", Rank: 0, Percentage: 116.7, Marks: 70, AverageMarks: 0, HighestMark: 60, ExamType: "Mock"},
		{Name: "Ravi \"RK\"", Track: record.TrackJEE, Month: "April", Date: "03/04/2024", Subject: "Math",
			Topic: "Algebra", Rank: 3, Percentage: 0.1 + 0.2, Marks: 0.3, AverageMarks: 1e-7, HighestMark: 1, ExamType: "DCT"},
	}
	_, err = s.Insert(ctx, in)
	require.NoError(t, err)
	out, err := s.Query(ctx, store.Filter{})
	require.NoError(t, err)
	return s, out
}

func TestWriteCSVHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "id,Name,Course,Month,Date,Subject,Topic,Rank,Percentage,Marks,Average_Marks,Highest_Mark,Exam_Type,created_at\n", buf.String())
}

func TestCSVRoundTripIsDuplicateOnEveryRow(t *testing.T) {
	ctx := context.Background()
	s, stored := seeded(t)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, stored))

	res, err := ingest.Parse(buf.Bytes(), ingest.Options{})
	require.NoError(t, err)
	require.Len(t, res.Records, len(stored))
	for i := range stored {
		assert.Equal(t, stored[i].Key(), res.Records[i].Key())
	}
	assert.Empty(t, res.Report.Warnings)

	for _, r := range res.Records {
		n, err := s.Insert(ctx, []record.PerformanceRecord{r})
		assert.Zero(t, n)
		assert.ErrorIs(t, err, record.ErrDuplicateDetected)
	}
}

func TestWriteXLSXReadsBack(t *testing.T) {
	recs := []record.PerformanceRecord{
		{ID: 1, Name: "Asha", Track: record.TrackJEE, Month: "May", Date: "01/05/2024", Subject: "Math",
			Rank: 2, Percentage: 93.75, Marks: 75, AverageMarks: 50, HighestMark: 80, ExamType: "DCT",
			CreatedAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, recs))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "2024-05-01 08:00:00.000000", rows[1][len(Header)-1])

	res, err := ingest.ParseXLSX(buf.Bytes(), ingest.Options{})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, recs[0].Key(), res.Records[0].Key())
}

func TestTemplateImports(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTemplate(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), "Name,Course,Month,Date,Subject"))

	res, err := ingest.Parse(buf.Bytes(), ingest.Options{})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, record.TrackNEET, res.Records[1].Track)
	assert.InDelta(t, 85.0/95*100, res.Records[0].Percentage, 1e-9)
	assert.Equal(t, "Weekly", res.Records[0].ExamType)
}

func TestParseFormatAndFileName(t *testing.T) {
	f, err := ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, XLSX, f)
	_, err = ParseFormat("pdf")
	assert.Error(t, err)
	assert.Equal(t, "student_performance_data_20240501_080000.csv", DefaultFileName(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), CSV))
}
