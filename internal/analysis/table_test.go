package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/scoreloom-cli/internal/record"
)

func pr(name, subject string, track record.Track, pct float64, rank int) record.PerformanceRecord {
	return record.PerformanceRecord{
		Name: name, Subject: subject, Track: track, Percentage: pct, Rank: rank,
		Marks: pct, AverageMarks: 50, HighestMark: 100, ExamType: "DCT", Month: "March",
	}
}

func TestMeanRankIgnoresUnranked(t *testing.T) {
	recs := []record.PerformanceRecord{
		pr("A", "Math", record.TrackJEE, 70, 0),
		pr("A", "Math", record.TrackJEE, 70, 10),
		pr("A", "Math", record.TrackJEE, 70, 20),
	}
	s := Aggregate(recs, BySubject, DefaultBenchmarks())["Math"]
	assert.InDelta(t, 15, s.MeanRank, 1e-9)
	assert.Equal(t, 2, s.Ranked)
	assert.Equal(t, 3, s.Count)
}

func TestPassThresholdIsInclusive(t *testing.T) {
	recs := []record.PerformanceRecord{
		pr("A", "Math", record.TrackJEE, 60.0, 0),
		pr("B", "Math", record.TrackJEE, 59.9, 0),
		pr("C", "Biology", record.TrackNEET, 50.0, 0),
	}
	groups := Aggregate(recs, ByTrack, DefaultBenchmarks())
	jee := groups["JEE"]
	assert.Equal(t, 1, jee.Passed)
	assert.InDelta(t, 50, jee.PassRate, 1e-9)
	neet := groups["NEET"]
	assert.Equal(t, 1, neet.Passed)
	assert.InDelta(t, 100, neet.PassRate, 1e-9)
	assert.InDelta(t, 100, jee.OverallPassRate, 1e-9, "overall pass rate")
}

func TestEmptyGroupHasZeroRates(t *testing.T) {
	o := Overall(nil, DefaultBenchmarks())
	assert.Zero(t, o.Count)
	assert.Zero(t, o.PassRate)
	assert.Zero(t, o.OverallPassRate)
	assert.Zero(t, o.MeanRank)
	assert.Empty(t, Aggregate(nil, BySubject, DefaultBenchmarks()))
}

func TestSampleStdAndStudents(t *testing.T) {
	recs := []record.PerformanceRecord{
		pr("A", "Math", record.TrackJEE, 40, 0),
		pr("B", "Math", record.TrackJEE, 60, 0),
		pr("A", "Math", record.TrackJEE, 80, 0),
	}
	s := Overall(recs, DefaultBenchmarks())
	assert.InDelta(t, 60, s.MeanPercentage, 1e-9)
	assert.InDelta(t, 20, s.StdPercentage, 1e-9)
	assert.Equal(t, 2, s.Students)
	assert.Zero(t, Overall(recs[:1], DefaultBenchmarks()).StdPercentage, "single record std")
}

func TestGroupKeys(t *testing.T) {
	r := pr("Asha", "Physics", record.TrackNEET, 70, 0)
	cases := map[GroupBy]string{
		BySubject: "Physics", ByTrack: "NEET", ByExamType: "DCT",
		ByTrackSubject: "NEET/Physics", ByStudent: "Asha", ByMonth: "March",
	}
	for g, want := range cases {
		assert.Equal(t, want, g.Key(r), "%s key", g)
	}
	_, err := ParseGroupBy("colour")
	assert.Error(t, err, "unknown grouping")
	g, err := ParseGroupBy(" Track_Subject ")
	require.NoError(t, err)
	assert.Equal(t, ByTrackSubject, g)
}

func TestSummarizeMarkdown(t *testing.T) {
	recs := []record.PerformanceRecord{
		pr("A", "Physics", record.TrackJEE, 80, 5),
		pr("A", "Math", record.TrackJEE, 55, 0),
		pr("B", "Biology", record.TrackNEET, 65, 0),
	}
	rep := Summarize(recs, BySubject, DefaultBenchmarks())
	require.Len(t, rep.Groups, 3)
	assert.Equal(t, "Biology", rep.Groups[0].Key, "groups ordered by key")
	require.NotNil(t, rep.Best)
	assert.Equal(t, "Physics", rep.Best.Subject)
	require.Len(t, rep.TrackGaps, 2)
	assert.InDelta(t, 67.5-75, rep.TrackGaps[0].Gap, 1e-9)

	md := rep.Markdown()
	for _, want := range []string{"[PERFORMANCE SUMMARY]", "[BY SUBJECT]", "[BENCHMARKS]", "Average rank: 5"} {
		assert.Contains(t, md, want)
	}
	assert.Contains(t, Summarize(nil, BySubject, DefaultBenchmarks()).Markdown(), "no records matched")
}

func TestBenchmarksFallback(t *testing.T) {
	got := DefaultBenchmarks().For("UPSC")
	assert.Equal(t, 35.0, got.PassThreshold)
	assert.Equal(t, 50.0, got.Target)
}
