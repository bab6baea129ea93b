package service

import (
	"context"

	"github.com/KaramelBytes/scoreloom-cli/internal/record"
)

// SampleRecords is a small demonstration data set for one student across both tracks.
func SampleRecords() []record.PerformanceRecord {
	base := record.PerformanceRecord{Name: "Asgar Hussain Sayyed", Month: "August"}
	rows := []struct {
		track                      record.Track
		date, subject, topic, exam string
		rank                       int
		pct, marks, avg, highest   float64
	}{
		{record.TrackJEE, "03/08/2025", "PM", "Kinematics,Trigonometric Function", "Weekly", 15, 27, 27, 58.05, 96},
		{record.TrackJEE, "04/08/2025", "Math", "Quadratic Equation", "DCT", 0, 0, 0, 19.9, 40},
		{record.TrackNEET, "05/08/2025", "Chemistry", "Structure of autom", "DCT", 0, 0, 0, 33.44, 60},
		{record.TrackJEE, "05/08/2025", "Physics", "Kinematics", "DCT", 51, 32, 19, 29.67, 51},
		{record.TrackNEET, "09/08/2025", "Chemistry", "Organic Chemistry", "DCT", 37, 71.25, 57, 60.05, 80},
	}
	out := make([]record.PerformanceRecord, 0, len(rows))
	for _, r := range rows {
		rec := base
		rec.Track, rec.Date, rec.Subject, rec.Topic, rec.ExamType = r.track, r.date, r.subject, r.topic, r.exam
		rec.Rank, rec.Percentage, rec.Marks, rec.AverageMarks, rec.HighestMark = r.rank, r.pct, r.marks, r.avg, r.highest
		out = append(out, rec)
	}
	return out
}

// LoadSample inserts SampleRecords and returns how many were added.
func (s *Service) LoadSample(ctx context.Context) (int, error) {
	n, err := s.store.Insert(ctx, SampleRecords())
	if err != nil {
		logInsertError(s.log, err, "sample load")
		return n, err
	}
	s.log.Info().Int("added", n).Msg("sample data loaded")
	return n, nil
}
