package analysis

import "github.com/KaramelBytes/scoreloom-cli/internal/record"

// Benchmark holds the thresholds for one track.
type Benchmark struct {
	PassThreshold float64  `json:"pass_threshold" yaml:"pass_threshold"`
	Target        float64  `json:"target" yaml:"target"`
	KeySubjects   []string `json:"key_subjects" yaml:"key_subjects"`
}

// Benchmarks is the lookup table used by aggregation and insights.
type Benchmarks struct {
	Tracks map[record.Track]Benchmark `json:"tracks"`
	// OverallPass is the track-agnostic pass threshold.
	OverallPass float64 `json:"overall_pass"`
	// OverallBenchmark is the track-agnostic reference average.
	OverallBenchmark float64 `json:"overall_benchmark"`
}

// DefaultBenchmarks returns the standard JEE/NEET thresholds.
func DefaultBenchmarks() Benchmarks {
	return Benchmarks{
		Tracks: map[record.Track]Benchmark{
			record.TrackJEE:  {PassThreshold: 60, Target: 75, KeySubjects: []string{"Physics", "Chemistry", "Math"}},
			record.TrackNEET: {PassThreshold: 50, Target: 70, KeySubjects: []string{"Physics", "Chemistry", "Biology"}},
		},
		OverallPass:      35,
		OverallBenchmark: 50,
	}
}

// For returns the benchmark of t, falling back to the overall thresholds for unknown tracks.
func (b Benchmarks) For(t record.Track) Benchmark {
	if bm, ok := b.Tracks[t]; ok {
		return bm
	}
	return Benchmark{PassThreshold: b.OverallPass, Target: b.OverallBenchmark}
}
