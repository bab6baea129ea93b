package insight

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/scoreloom-cli/internal/analysis"
	"github.com/KaramelBytes/scoreloom-cli/internal/record"
)

func exam(subject string, pct float64, day int) record.PerformanceRecord {
	return record.PerformanceRecord{
		Name: "Asha", Track: record.TrackJEE, Subject: subject, Percentage: pct,
		Marks: pct, AverageMarks: 50, HighestMark: 100, ExamType: "DCT",
		Date: fmt.Sprintf("%02d/01/2024", day),
	}
}

func neetExam(subject string, pct float64, day int) record.PerformanceRecord {
	r := exam(subject, pct, day)
	r.Track = record.TrackNEET
	r.ExamType = "Mock"
	return r
}

func contains(list []string, prefix string) (string, bool) {
	for _, s := range list {
		if strings.HasPrefix(s, prefix) {
			return s, true
		}
	}
	return "", false
}

func TestEmptyInputHasNoInsights(t *testing.T) {
	assert.Empty(t, New(analysis.DefaultBenchmarks()).Generate(nil, record.TrackJEE))
}

func TestBandsFirstMatchWins(t *testing.T) {
	g := New(analysis.DefaultBenchmarks())
	cases := map[float64]string{75: "Excellent", 74.9: "Good Performance", 35: "Average Performance", 34.9: "Needs Improvement"}
	for pct, want := range cases {
		got := g.Generate([]record.PerformanceRecord{exam("Math", pct, 1)}, "")
		require.NotEmpty(t, got)
		assert.True(t, strings.HasPrefix(got[0], want), "%v: got %q, want prefix %q", pct, got[0], want)
	}
}

func TestGeneralOrderAndTies(t *testing.T) {
	recs := []record.PerformanceRecord{
		exam("Physics", 80, 1),
		exam("Math", 80, 2),
		exam("Chemistry", 30, 3),
		exam("Biology", 30, 4),
	}
	got := New(analysis.DefaultBenchmarks()).Generate(recs, "")
	assert.Equal(t, []string{
		"Average Performance: Meeting basic requirements but needs focus",
		"Strongest Subject: Physics (80.0%)",
		"Focus Area: Chemistry (30.0%)",
		"Variable Performance: High variation suggests inconsistent preparation",
		"Below Class Average: Need to improve in 2/4 exams",
	}, got)
}

func TestSingleRecordIsVariable(t *testing.T) {
	got := New(analysis.DefaultBenchmarks()).Generate([]record.PerformanceRecord{exam("Math", 70, 1)}, "")
	_, variable := contains(got, "Variable Performance")
	assert.True(t, variable, "one result cannot show consistency: %v", got)
	_, consistent := contains(got, "Consistent Performance")
	assert.False(t, consistent)

	two := []record.PerformanceRecord{exam("Math", 70, 1), exam("Math", 72, 2)}
	_, consistent = contains(New(analysis.DefaultBenchmarks()).Generate(two, ""), "Consistent Performance")
	assert.True(t, consistent)
}

func TestBestExamTypeNeedsTwoTypes(t *testing.T) {
	a, b := exam("Math", 70, 1), exam("Math", 90, 2)
	g := New(analysis.DefaultBenchmarks())
	_, ok := contains(g.Generate([]record.PerformanceRecord{a, b}, ""), "Best Exam Format")
	assert.False(t, ok, "single exam type should not report a best format")

	b.ExamType = "Mock"
	got, ok := contains(g.Generate([]record.PerformanceRecord{a, b}, ""), "Best Exam Format")
	require.True(t, ok)
	assert.Equal(t, "Best Exam Format: Mock (90.0% avg)", got)
}

func TestClassStandingAbove(t *testing.T) {
	recs := []record.PerformanceRecord{exam("Math", 70, 1), exam("Physics", 60, 2), exam("Chemistry", 30, 3)}
	got, ok := contains(New(analysis.DefaultBenchmarks()).Generate(recs, ""), "Above Class Average")
	require.True(t, ok)
	assert.Equal(t, "Above Class Average: Outperforming class in 2/3 exams", got)
}

func TestTrendNeedsThreeDatedRecords(t *testing.T) {
	g := New(analysis.DefaultBenchmarks())
	two := []record.PerformanceRecord{exam("Math", 40, 1), exam("Math", 90, 2)}
	for _, s := range g.Generate(two, record.TrackJEE) {
		assert.NotContains(t, s, "Trend")
		assert.False(t, strings.HasPrefix(s, "Stable"), "unexpected trend insight %q", s)
	}

	undated := append(two, exam("Math", 60, 3))
	undated[2].Date = "sometime"
	_, ok := contains(g.Generate(undated, record.TrackJEE), "Improving Trend")
	assert.False(t, ok, "unparsable dates must not count toward the trend")
}

func TestTrendImproving(t *testing.T) {
	// Given out of order to check the date sort.
	recs := []record.PerformanceRecord{
		exam("Math", 50, 6), exam("Math", 40, 1), exam("Math", 50, 5),
		exam("Math", 40, 2), exam("Math", 50, 4), exam("Math", 40, 3),
	}
	got, ok := contains(New(analysis.DefaultBenchmarks()).Generate(recs, record.TrackJEE), "Improving Trend")
	require.True(t, ok)
	assert.Equal(t, "Improving Trend: +10.0% improvement in recent exams", got)
}

func TestTrendDecliningAndStable(t *testing.T) {
	g := New(analysis.DefaultBenchmarks())
	down := []record.PerformanceRecord{exam("Math", 80, 1), exam("Math", 80, 2), exam("Math", 80, 3), exam("Math", 60, 4)}
	_, ok := contains(g.Generate(down, record.TrackJEE), "Declining Trend: -6.7%")
	assert.True(t, ok, "expected declining trend, got %v", g.Generate(down, record.TrackJEE))

	flat := []record.PerformanceRecord{exam("Math", 60, 1), exam("Math", 62, 2), exam("Math", 61, 3), exam("Math", 63, 4)}
	_, ok = contains(g.Generate(flat, record.TrackJEE), "Stable Performance")
	assert.True(t, ok, "expected stable trend")
}

func TestTrackScopedInsights(t *testing.T) {
	recs := []record.PerformanceRecord{
		exam("Physics", 80, 1),
		exam("Math", 60, 2),
		exam("English", 90, 3),
		neetExam("Biology", 20, 4),
	}

	got := New(analysis.DefaultBenchmarks()).Generate(recs, record.TrackJEE)
	for _, want := range []string{
		"Physics: Strong performance (80.0% avg)",
		"Math: Needs attention (60.0% avg, target: 75%)",
		"JEE Ready: Above target average (76.7%)",
	} {
		_, ok := contains(got, want)
		assert.True(t, ok, "missing %q in %v", want, got)
	}
	_, ok := contains(got, "Biology:")
	assert.False(t, ok, "NEET records leaked into JEE insights")

	short := New(analysis.DefaultBenchmarks()).Generate(recs[:2], record.TrackJEE)
	_, ok = contains(short, "Improvement Needed: 5.0% below JEE target")
	assert.True(t, ok, "got %v", short)
}

func TestTrackFiltersGeneralRules(t *testing.T) {
	recs := []record.PerformanceRecord{
		exam("Physics", 90, 1),
		neetExam("Biology", 10, 2),
		neetExam("Chemistry", 12, 3),
	}
	g := New(analysis.DefaultBenchmarks())

	assert.Equal(t, []string{
		"Excellent Overall Performance: Above 75% average!",
		"Strongest Subject: Physics (90.0%)",
		"Focus Area: Physics (90.0%)",
		"Variable Performance: High variation suggests inconsistent preparation",
		"Above Class Average: Outperforming class in 1/1 exams",
		"Physics: Strong performance (90.0% avg)",
		"JEE Ready: Above target average (90.0%)",
	}, g.Generate(recs, record.TrackJEE))

	neet := g.Generate(recs, record.TrackNEET)
	require.NotEmpty(t, neet)
	assert.Equal(t, "Needs Improvement: Below average performance requires immediate attention", neet[0])
	assert.Contains(t, neet, "Strongest Subject: Chemistry (12.0%)")
	assert.Contains(t, neet, "Below Class Average: Need to improve in 2/2 exams")
	for _, s := range neet {
		assert.NotContains(t, s, "Physics", "JEE records leaked into NEET insights")
	}

	all := g.Generate(recs, "")
	require.NotEmpty(t, all)
	assert.Equal(t, "Average Performance: Meeting basic requirements but needs focus", all[0])
	assert.Contains(t, all, "Best Exam Format: DCT (90.0% avg)")
}

func TestTrackWithoutRecordsHasNoInsights(t *testing.T) {
	recs := []record.PerformanceRecord{neetExam("Biology", 60, 1)}
	assert.Empty(t, New(analysis.DefaultBenchmarks()).Generate(recs, record.TrackJEE))
}
