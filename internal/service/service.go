package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/KaramelBytes/scoreloom-cli/internal/analysis"
	"github.com/KaramelBytes/scoreloom-cli/internal/export"
	"github.com/KaramelBytes/scoreloom-cli/internal/ingest"
	"github.com/KaramelBytes/scoreloom-cli/internal/insight"
	"github.com/KaramelBytes/scoreloom-cli/internal/record"
	"github.com/KaramelBytes/scoreloom-cli/internal/store"
)

// Options configures a Service.
type Options struct {
	Validator  *record.Validator
	Benchmarks analysis.Benchmarks
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Service is the operation surface shared by the CLI and the HTTP API.
type Service struct {
	store     store.Store
	validator *record.Validator
	bench     analysis.Benchmarks
	insights  *insight.Generator
	log       zerolog.Logger
	now       func() time.Time
}

// New wires a Service around st.
func New(st store.Store, opt Options) *Service {
	if opt.Validator == nil {
		opt.Validator = record.NewValidator(false)
	}
	if opt.Benchmarks.Tracks == nil {
		opt.Benchmarks = analysis.DefaultBenchmarks()
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	return &Service{
		store:     st,
		validator: opt.Validator,
		bench:     opt.Benchmarks,
		insights:  insight.New(opt.Benchmarks),
		log:       opt.Logger.With().Str("component", "service").Logger(),
		now:       opt.Now,
	}
}

// Benchmarks returns the thresholds in use.
func (s *Service) Benchmarks() analysis.Benchmarks { return s.bench }

// ImportResult is the outcome of a bulk import. Added counts committed records even
// when the import stopped at a duplicate.
type ImportResult struct {
	Added  int           `json:"added"`
	Report ingest.Report `json:"report"`
}

func (s *Service) ListRecords(ctx context.Context, f store.Filter) ([]record.PerformanceRecord, error) {
	return s.store.Query(ctx, f)
}

// AddRecord validates and stores one manually entered record. Blank Month and Date
// default to the current month and day; a blank Exam_Type becomes DefaultExamType.
func (s *Service) AddRecord(ctx context.Context, fields map[string]string) (record.PerformanceRecord, error) {
	f := make(map[string]string, len(fields))
	for k, v := range fields {
		f[k] = v
	}
	now := s.now()
	if strings.TrimSpace(f[record.ColMonth]) == "" {
		f[record.ColMonth] = now.Format("January")
	}
	if strings.TrimSpace(f[record.ColDate]) == "" {
		f[record.ColDate] = now.Format(record.DateLayout)
	}
	if strings.TrimSpace(f[record.ColExamType]) == "" {
		f[record.ColExamType] = record.DefaultExamType
	}
	r, err := s.validator.FromFields(f)
	if err != nil {
		s.log.Warn().Err(err).Msg("manual entry rejected")
		return record.PerformanceRecord{}, err
	}
	if _, err := s.store.Insert(ctx, []record.PerformanceRecord{r}); err != nil {
		logInsertError(s.log, err, "manual entry")
		return record.PerformanceRecord{}, err
	}
	s.log.Info().Str("name", r.Name).Str("subject", r.Subject).Str("track", string(r.Track)).
		Float64("percentage", r.Percentage).Msg("record added")
	return r, nil
}

// BulkImport parses blob (named for format detection) and inserts every surviving row.
// Parse failures leave the store untouched. A duplicate stops the insert; the result
// still reports what was committed before it.
func (s *Service) BulkImport(ctx context.Context, name string, blob []byte) (*ImportResult, error) {
	res, err := ingest.ParseNamed(name, blob, ingest.Options{Source: name, Now: s.now, Validator: s.validator})
	if err != nil {
		s.log.Warn().Err(err).Str("source", name).Msg("import rejected")
		return nil, err
	}
	rep := res.Report
	log := s.log.With().Str("batch", rep.BatchID).Str("source", name).Logger()
	n, err := s.store.Insert(ctx, res.Records)
	out := &ImportResult{Added: n, Report: rep}
	if err != nil {
		logInsertError(log, err, "import")
		return out, err
	}
	log.Info().Int("added", n).Int("dropped", rep.Dropped()).Str("encoding", rep.Encoding).
		Str("delimiter", rep.DelimiterName()).Msg("import complete")
	return out, nil
}

func logInsertError(log zerolog.Logger, err error, what string) {
	var de *record.DuplicateError
	if errors.As(err, &de) {
		log.Warn().Int("position", de.Index+1).Int("committed", de.Committed).Msg(what + " stopped at duplicate")
		return
	}
	log.Error().Err(err).Msg(what + " failed")
}

func (s *Service) DeleteByName(ctx context.Context, name string) (int64, error) {
	n, err := s.store.DeleteByName(ctx, name)
	if err != nil {
		s.log.Error().Err(err).Str("name", name).Msg("delete failed")
		return 0, err
	}
	s.log.Info().Str("name", name).Int64("deleted", n).Msg("student records deleted")
	return n, nil
}

func (s *Service) DeleteByID(ctx context.Context, id int64) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		if !errors.Is(err, record.ErrNotFound) {
			s.log.Error().Err(err).Int64("id", id).Msg("delete failed")
		}
		return err
	}
	s.log.Info().Int64("id", id).Msg("record deleted")
	return nil
}

func (s *Service) ResetAll(ctx context.Context) error {
	if err := s.store.ResetAll(ctx); err != nil {
		s.log.Error().Err(err).Msg("reset failed")
		return err
	}
	s.log.Warn().Msg("database reset")
	return nil
}

func (s *Service) Stats(ctx context.Context) (*store.Stats, error) {
	return s.store.Stats(ctx)
}

func (s *Service) Students(ctx context.Context) ([]string, error) {
	return s.store.Students(ctx)
}

// Summarize aggregates the records matching f.
func (s *Service) Summarize(ctx context.Context, f store.Filter, by analysis.GroupBy) (*analysis.Report, error) {
	recs, err := s.store.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	return analysis.Summarize(recs, by, s.bench), nil
}

// Insights returns the ordered insights for one student. An unknown student has none.
func (s *Service) Insights(ctx context.Context, student string, track record.Track) ([]string, error) {
	if strings.TrimSpace(student) == "" {
		return nil, &record.FieldError{Field: record.ColName}
	}
	recs, err := s.store.Query(ctx, store.Filter{Name: student})
	if err != nil {
		return nil, err
	}
	return s.insights.Generate(recs, track), nil
}

// Export writes the records matching f and returns how many were written.
func (s *Service) Export(ctx context.Context, w io.Writer, f store.Filter, format export.Format) (int, error) {
	recs, err := s.store.Query(ctx, f)
	if err != nil {
		return 0, err
	}
	if err := export.Write(w, format, recs); err != nil {
		return 0, fmt.Errorf("export %s: %w", format, err)
	}
	s.log.Debug().Int("records", len(recs)).Str("format", string(format)).Msg("exported")
	return len(recs), nil
}
