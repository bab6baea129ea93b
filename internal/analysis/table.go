package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/scoreloom-cli/internal/record"
)

// GroupBy names a record field used to bucket records.
type GroupBy string

const (
	BySubject      GroupBy = "subject"
	ByTrack        GroupBy = "track"
	ByExamType     GroupBy = "exam_type"
	ByTrackSubject GroupBy = "track_subject"
	ByStudent      GroupBy = "student"
	ByMonth        GroupBy = "month"
)

// GroupBys lists every supported grouping.
var GroupBys = []GroupBy{BySubject, ByTrack, ByExamType, ByTrackSubject, ByStudent, ByMonth}

// ParseGroupBy accepts a grouping name, case-insensitively. Blank means subject.
func ParseGroupBy(s string) (GroupBy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return BySubject, nil
	}
	for _, g := range GroupBys {
		if string(g) == s {
			return g, nil
		}
	}
	names := make([]string, len(GroupBys))
	for i, g := range GroupBys {
		names[i] = string(g)
	}
	return "", fmt.Errorf("unknown group-by %q (use one of: %s)", s, strings.Join(names, ", "))
}

// Key returns the group key of r.
func (g GroupBy) Key(r record.PerformanceRecord) string {
	switch g {
	case ByTrack:
		return string(r.Track)
	case ByExamType:
		return r.ExamType
	case ByTrackSubject:
		return string(r.Track) + "/" + r.Subject
	case ByStudent:
		return r.Name
	case ByMonth:
		return r.Month
	default:
		return r.Subject
	}
}

// Summary holds the statistics of one group of records. Percentages are 0..100.
type Summary struct {
	Key              string  `json:"key"`
	Count            int     `json:"count"`
	Students         int     `json:"students"`
	MeanPercentage   float64 `json:"mean_percentage"`
	StdPercentage    float64 `json:"std_percentage"`
	MinPercentage    float64 `json:"min_percentage"`
	MaxPercentage    float64 `json:"max_percentage"`
	MeanMarks        float64 `json:"mean_marks"`
	MeanAverageMarks float64 `json:"mean_average_marks"`
	MeanHighestMark  float64 `json:"mean_highest_mark"`
	// MeanRank covers only records with a rank; 0 when none have one.
	MeanRank        float64 `json:"mean_rank"`
	Ranked          int     `json:"ranked"`
	Passed          int     `json:"passed"`
	PassRate        float64 `json:"pass_rate"`
	OverallPassRate float64 `json:"overall_pass_rate"`
}

// stat is a running mean/variance (Welford).
type stat struct {
	n        int
	mean     float64
	m2       float64
	min, max float64
}

func (s *stat) add(x float64) {
	s.n++
	if s.n == 1 || x < s.min {
		s.min = x
	}
	if s.n == 1 || x > s.max {
		s.max = x
	}
	delta := x - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (x - s.mean)
}

// std is the sample standard deviation, 0 below two values.
func (s *stat) std() float64 {
	if s.n < 2 {
		return 0
	}
	return math.Sqrt(s.m2 / float64(s.n-1))
}

type groupAcc struct {
	pct, marks, avg, highest, rank stat
	students                       map[string]struct{}
	passed, overallPassed          int
}

func newGroupAcc() *groupAcc { return &groupAcc{students: map[string]struct{}{}} }

func (g *groupAcc) add(r record.PerformanceRecord, bench Benchmarks) {
	g.pct.add(r.Percentage)
	g.marks.add(r.Marks)
	g.avg.add(r.AverageMarks)
	g.highest.add(r.HighestMark)
	// Rank 0 means unavailable.
	if r.Rank > 0 {
		g.rank.add(float64(r.Rank))
	}
	g.students[r.Name] = struct{}{}
	if r.Percentage >= bench.For(r.Track).PassThreshold {
		g.passed++
	}
	if r.Percentage >= bench.OverallPass {
		g.overallPassed++
	}
}

func (g *groupAcc) summary(key string) Summary {
	s := Summary{
		Key:              key,
		Count:            g.pct.n,
		Students:         len(g.students),
		MeanPercentage:   g.pct.mean,
		StdPercentage:    g.pct.std(),
		MinPercentage:    g.pct.min,
		MaxPercentage:    g.pct.max,
		MeanMarks:        g.marks.mean,
		MeanAverageMarks: g.avg.mean,
		MeanHighestMark:  g.highest.mean,
		MeanRank:         g.rank.mean,
		Ranked:           g.rank.n,
		Passed:           g.passed,
	}
	if s.Count > 0 {
		s.PassRate = float64(g.passed) * 100 / float64(s.Count)
		s.OverallPassRate = float64(g.overallPassed) * 100 / float64(s.Count)
	}
	return s
}

// Aggregate buckets recs by the given field and summarizes each bucket.
func Aggregate(recs []record.PerformanceRecord, by GroupBy, bench Benchmarks) map[string]Summary {
	accs := map[string]*groupAcc{}
	for _, r := range recs {
		k := by.Key(r)
		a := accs[k]
		if a == nil {
			a = newGroupAcc()
			accs[k] = a
		}
		a.add(r, bench)
	}
	out := make(map[string]Summary, len(accs))
	for k, a := range accs {
		out[k] = a.summary(k)
	}
	return out
}

// Overall summarizes recs as a single group.
func Overall(recs []record.PerformanceRecord, bench Benchmarks) Summary {
	a := newGroupAcc()
	for _, r := range recs {
		a.add(r, bench)
	}
	return a.summary("all")
}

// TrackGap compares a track's mean with its target.
type TrackGap struct {
	Track  record.Track `json:"track"`
	Count  int          `json:"count"`
	Mean   float64      `json:"mean"`
	Target float64      `json:"target"`
	// Gap is Mean minus Target; negative means below target.
	Gap float64 `json:"gap"`
}

// Best is the highest-scoring record's subject.
type Best struct {
	Subject    string  `json:"subject"`
	Percentage float64 `json:"percentage"`
}

// Report is an ordered, renderable aggregation result.
type Report struct {
	GroupBy          GroupBy    `json:"group_by"`
	Groups           []Summary  `json:"groups"`
	Overall          Summary    `json:"overall"`
	OverallBenchmark float64    `json:"overall_benchmark"`
	Best             *Best      `json:"best,omitempty"`
	TrackGaps        []TrackGap `json:"track_gaps,omitempty"`
	Warnings         []string   `json:"warnings,omitempty"`
}

// Summarize aggregates recs and orders the groups by key.
func Summarize(recs []record.PerformanceRecord, by GroupBy, bench Benchmarks) *Report {
	rep := &Report{GroupBy: by, Overall: Overall(recs, bench), OverallBenchmark: bench.OverallBenchmark}
	if len(recs) == 0 {
		rep.Warnings = append(rep.Warnings, "no records matched")
		return rep
	}
	groups := Aggregate(recs, by, bench)
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rep.Groups = append(rep.Groups, groups[k])
	}

	best := recs[0]
	for _, r := range recs[1:] {
		if r.Percentage > best.Percentage {
			best = r
		}
	}
	rep.Best = &Best{Subject: best.Subject, Percentage: best.Percentage}

	byTrack := Aggregate(recs, ByTrack, bench)
	for _, t := range record.Tracks {
		s, ok := byTrack[string(t)]
		if !ok {
			continue
		}
		target := bench.For(t).Target
		rep.TrackGaps = append(rep.TrackGaps, TrackGap{Track: t, Count: s.Count, Mean: s.MeanPercentage, Target: target, Gap: s.MeanPercentage - target})
	}
	if rep.Overall.Ranked == 0 {
		rep.Warnings = append(rep.Warnings, "no ranks recorded; average rank unavailable")
	}
	return rep
}

// Markdown renders the report as plain sectioned text.
func (r *Report) Markdown() string {
	var b strings.Builder
	o := r.Overall
	b.WriteString("[PERFORMANCE SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Records: %d, students: %d\n", o.Count, o.Students))
	if o.Count > 0 {
		b.WriteString(fmt.Sprintf("Average: %.1f%% (%+.1f%% vs %.0f%% benchmark), std %.1f\n",
			o.MeanPercentage, o.MeanPercentage-r.OverallBenchmark, r.OverallBenchmark, o.StdPercentage))
		b.WriteString(fmt.Sprintf("Passed: %d/%d (%.1f%% against track thresholds), %.1f%% above the overall threshold\n",
			o.Passed, o.Count, o.PassRate, o.OverallPassRate))
		if r.Best != nil {
			b.WriteString(fmt.Sprintf("Best: %s (%.1f%%)\n", safeName(r.Best.Subject), r.Best.Percentage))
		}
		if o.Ranked > 0 {
			b.WriteString(fmt.Sprintf("Average rank: %.0f (over %d ranked)\n", o.MeanRank, o.Ranked))
		} else {
			b.WriteString("Average rank: N/A\n")
		}
	}

	if len(r.Groups) > 0 {
		b.WriteString(fmt.Sprintf("\n[BY %s]\n", strings.ToUpper(strings.ReplaceAll(string(r.GroupBy), "_", " "))))
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d, students=%d): mean %.1f%%, std %.1f, min %.1f%%, max %.1f%%, pass %.1f%%",
				safeName(g.Key), g.Count, g.Students, g.MeanPercentage, g.StdPercentage, g.MinPercentage, g.MaxPercentage, g.PassRate))
			if g.Ranked > 0 {
				b.WriteString(fmt.Sprintf(", rank %.1f", g.MeanRank))
			}
			b.WriteString("\n")
		}
	}

	if len(r.TrackGaps) > 0 {
		b.WriteString("\n[BENCHMARKS]\n")
		for _, tg := range r.TrackGaps {
			status := "above target"
			if tg.Gap < 0 {
				status = "below target"
			}
			b.WriteString(fmt.Sprintf("- %s: %.1f%% vs target %.0f%% (%+.1f, %s)\n", tg.Track, tg.Mean, tg.Target, tg.Gap, status))
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
