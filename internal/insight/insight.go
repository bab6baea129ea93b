package insight

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/scoreloom-cli/internal/analysis"
	"github.com/KaramelBytes/scoreloom-cli/internal/record"
)

const (
	// ConsistencyStd is the percentage std below which results count as consistent.
	ConsistencyStd = 15.0
	// TrendWindow is how many records each end of the trend comparison averages.
	TrendWindow = 3
	// TrendDelta is the change in mean percentage that counts as a trend.
	TrendDelta = 5.0
)

// band is one mutually exclusive tier; the first matching band wins.
type band struct {
	match func(mean float64) bool
	text  string
}

var bands = []band{
	{func(m float64) bool { return m >= 75 }, "Excellent Overall Performance: Above 75% average!"},
	{func(m float64) bool { return m >= 60 }, "Good Performance: Solid academic standing with room for improvement"},
	{func(m float64) bool { return m >= 35 }, "Average Performance: Meeting basic requirements but needs focus"},
	{func(float64) bool { return true }, "Needs Improvement: Below average performance requires immediate attention"},
}

// evaluator appends zero or more insights for recs.
type evaluator func(recs []record.PerformanceRecord) []string

// Generator turns one student's records into ordered, human-readable insights.
type Generator struct {
	bench   analysis.Benchmarks
	general []evaluator
}

// New returns a Generator using bench for track targets.
func New(bench analysis.Benchmarks) *Generator {
	g := &Generator{bench: bench}
	g.general = []evaluator{overallBand, subjectExtremes, bestExamType, consistency, classStanding}
	return g
}

// Generate evaluates the rules over recs. A non-empty track first narrows recs to
// that track, and every rule, general or track-specific, sees only that subset.
// Empty input yields no insights.
func (g *Generator) Generate(recs []record.PerformanceRecord, track record.Track) []string {
	if track != "" {
		scoped := make([]record.PerformanceRecord, 0, len(recs))
		for _, r := range recs {
			if r.Track == track {
				scoped = append(scoped, r)
			}
		}
		recs = scoped
	}
	if len(recs) == 0 {
		return nil
	}
	var out []string
	for _, ev := range g.general {
		out = append(out, ev(recs)...)
	}
	if track == "" {
		return out
	}
	bm := g.bench.For(track)
	out = append(out, keySubjects(recs, bm)...)
	out = append(out, readiness(recs, track, bm)...)
	out = append(out, trend(recs)...)
	return out
}

func meanPct(recs []record.PerformanceRecord) float64 {
	return analysis.Overall(recs, analysis.Benchmarks{}).MeanPercentage
}

func overallBand(recs []record.PerformanceRecord) []string {
	m := meanPct(recs)
	for _, b := range bands {
		if b.match(m) {
			return []string{b.text}
		}
	}
	return nil
}

// subjectExtremes reports the first record holding the highest and the lowest percentage.
func subjectExtremes(recs []record.PerformanceRecord) []string {
	best, worst := recs[0], recs[0]
	for _, r := range recs[1:] {
		if r.Percentage > best.Percentage {
			best = r
		}
		if r.Percentage < worst.Percentage {
			worst = r
		}
	}
	return []string{
		fmt.Sprintf("Strongest Subject: %s (%.1f%%)", best.Subject, best.Percentage),
		fmt.Sprintf("Focus Area: %s (%.1f%%)", worst.Subject, worst.Percentage),
	}
}

func bestExamType(recs []record.PerformanceRecord) []string {
	groups := analysis.Aggregate(recs, analysis.ByExamType, analysis.Benchmarks{})
	if len(groups) < 2 {
		return nil
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := groups[keys[0]]
	for _, k := range keys[1:] {
		if groups[k].MeanPercentage > best.MeanPercentage {
			best = groups[k]
		}
	}
	return []string{fmt.Sprintf("Best Exam Format: %s (%.1f%% avg)", best.Key, best.MeanPercentage)}
}

// consistency needs two records to measure spread; a single result is reported as variable.
func consistency(recs []record.PerformanceRecord) []string {
	if len(recs) > 1 && analysis.Overall(recs, analysis.Benchmarks{}).StdPercentage < ConsistencyStd {
		return []string{"Consistent Performance: Low variation in scores"}
	}
	return []string{"Variable Performance: High variation suggests inconsistent preparation"}
}

func classStanding(recs []record.PerformanceRecord) []string {
	above := 0
	for _, r := range recs {
		if r.Marks > r.AverageMarks {
			above++
		}
	}
	total := len(recs)
	if above*2 > total {
		return []string{fmt.Sprintf("Above Class Average: Outperforming class in %d/%d exams", above, total)}
	}
	return []string{fmt.Sprintf("Below Class Average: Need to improve in %d/%d exams", total-above, total)}
}

func keySubjects(recs []record.PerformanceRecord, bm analysis.Benchmark) []string {
	bySubject := analysis.Aggregate(recs, analysis.BySubject, analysis.Benchmarks{})
	var out []string
	for _, subj := range bm.KeySubjects {
		s, ok := bySubject[subj]
		if !ok {
			continue
		}
		if s.MeanPercentage >= bm.Target {
			out = append(out, fmt.Sprintf("%s: Strong performance (%.1f%% avg)", subj, s.MeanPercentage))
		} else {
			out = append(out, fmt.Sprintf("%s: Needs attention (%.1f%% avg, target: %.0f%%)", subj, s.MeanPercentage, bm.Target))
		}
	}
	return out
}

func readiness(recs []record.PerformanceRecord, track record.Track, bm analysis.Benchmark) []string {
	m := meanPct(recs)
	if m >= bm.Target {
		return []string{fmt.Sprintf("%s Ready: Above target average (%.1f%%)", track, m)}
	}
	return []string{fmt.Sprintf("Improvement Needed: %.1f%% below %s target", bm.Target-m, track)}
}

// trend compares the earliest and latest records by exam date. Records without a
// parsable date are left out; fewer than TrendWindow dated records give no trend.
func trend(recs []record.PerformanceRecord) []string {
	type dated struct {
		r record.PerformanceRecord
		t int64
	}
	var ds []dated
	for _, r := range recs {
		if t, ok := r.ParsedDate(); ok {
			ds = append(ds, dated{r, t.Unix()})
		}
	}
	if len(ds) < TrendWindow {
		return nil
	}
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].t < ds[j].t })
	earliest := make([]record.PerformanceRecord, 0, TrendWindow)
	latest := make([]record.PerformanceRecord, 0, TrendWindow)
	for i := 0; i < TrendWindow; i++ {
		earliest = append(earliest, ds[i].r)
		latest = append(latest, ds[len(ds)-TrendWindow+i].r)
	}
	diff := meanPct(latest) - meanPct(earliest)
	switch {
	case diff > TrendDelta:
		return []string{fmt.Sprintf("Improving Trend: +%.1f%% improvement in recent exams", diff)}
	case diff < -TrendDelta:
		return []string{fmt.Sprintf("Declining Trend: -%.1f%% drop in recent exams", -diff)}
	}
	return []string{"Stable Performance: Consistent recent performance"}
}
