package store

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/scoreloom-cli/internal/record"
)

// createdAtLayout is how created_at is written; legacy rows without the fraction still sort correctly.
const createdAtLayout = "2006-01-02 15:04:05.000000"

const recordColumns = `id, Name, COALESCE(Course, 'JEE'), COALESCE(Month, ''), COALESCE(Date, ''),
    COALESCE(Subject, ''), COALESCE(Topic, ''), CAST(COALESCE(Rank, 0) AS INTEGER),
    COALESCE(Percentage, 0), COALESCE(Marks, 0), COALESCE(Average_Marks, 0),
    COALESCE(Highest_Mark, 0), COALESCE(Exam_Type, ''), COALESCE(CAST(created_at AS TEXT), '')`

// Options configures a SQLiteStore.
type Options struct {
	Dedup  DedupPolicy
	Logger zerolog.Logger
	// Now stamps created_at. Defaults to time.Now.
	Now func() time.Time
}

// SQLiteStore is a Store backed by a single SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	dedup  DedupPolicy
	log    zerolog.Logger
	now    func() time.Time
	mu     sync.Mutex
	latest time.Time
}

var _ Store = (*SQLiteStore)(nil)

// Open opens (creating if needed) the database at path and brings its schema up to date.
func Open(ctx context.Context, path string, opt Options) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &record.StorageError{Op: "open", Err: err}
	}
	db.SetMaxOpenConns(1)

	if opt.Dedup == "" {
		opt.Dedup = DedupContent
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	s := &SQLiteStore{db: db, dedup: opt.Dedup, log: opt.Logger.With().Str("component", "store").Logger(), now: opt.Now}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, &record.StorageError{Op: "migrate", Err: err}
	}
	var latest string
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(CAST(MAX(created_at) AS TEXT), '') FROM student_data`).Scan(&latest); err != nil {
		db.Close()
		return nil, &record.StorageError{Op: "open", Err: err}
	}
	s.latest = parseCreatedAt(latest)
	s.log.Debug().Str("path", path).Str("dedup", string(s.dedup)).Msg("store opened")
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// stamp returns the next created_at, never earlier than the previous one.
func (s *SQLiteStore) stamp() time.Time {
	t := s.now().UTC().Truncate(time.Microsecond)
	if t.Before(s.latest) {
		t = s.latest
	}
	s.latest = t
	return t
}

const dupQuery = `SELECT COUNT(*) FROM student_data WHERE
    Name = ? AND Course = ? AND Month = ? AND Date = ? AND Subject = ? AND Topic = ?
    AND Rank = ? AND Percentage = ? AND Marks = ? AND Average_Marks = ? AND Highest_Mark = ? AND Exam_Type = ?`

const insertQuery = `INSERT INTO student_data
    (Name, Course, Month, Date, Subject, Topic, Rank, Percentage, Marks, Average_Marks, Highest_Mark, Exam_Type, created_at)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func keyArgs(r record.PerformanceRecord) []any {
	return []any{r.Name, string(r.Track), r.Month, r.Date, r.Subject, r.Topic,
		r.Rank, r.Percentage, r.Marks, r.AverageMarks, r.HighestMark, r.ExamType}
}

func (s *SQLiteStore) Insert(ctx context.Context, recs []record.PerformanceRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	committed := 0
	for i, r := range recs {
		args := keyArgs(r)
		if s.dedup == DedupContent {
			var n int
			if err := s.db.QueryRowContext(ctx, dupQuery, args...).Scan(&n); err != nil {
				return committed, &record.StorageError{Op: "duplicate check", Err: err}
			}
			if n > 0 {
				return committed, &record.DuplicateError{Index: i, Committed: committed}
			}
		}
		args = append(args, s.stamp().Format(createdAtLayout))
		if _, err := s.db.ExecContext(ctx, insertQuery, args...); err != nil {
			return committed, &record.StorageError{Op: "insert", Err: err}
		}
		committed++
	}
	s.log.Debug().Int("records", committed).Msg("inserted")
	return committed, nil
}

func (s *SQLiteStore) Query(ctx context.Context, f Filter) ([]record.PerformanceRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.Name != "" {
		where = append(where, "Name = ?")
		args = append(args, f.Name)
	}
	if f.Subject != "" {
		where = append(where, "Subject = ?")
		args = append(args, f.Subject)
	}
	if f.Track != "" {
		where = append(where, "COALESCE(Course, 'JEE') = ?")
		args = append(args, string(f.Track))
	}
	q := "SELECT " + recordColumns + " FROM student_data"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, &record.StorageError{Op: "query", Err: err}
	}
	defer rows.Close()

	var out []record.PerformanceRecord
	for rows.Next() {
		var (
			r       record.PerformanceRecord
			track   string
			created string
		)
		if err := rows.Scan(&r.ID, &r.Name, &track, &r.Month, &r.Date, &r.Subject, &r.Topic, &r.Rank,
			&r.Percentage, &r.Marks, &r.AverageMarks, &r.HighestMark, &r.ExamType, &created); err != nil {
			return nil, &record.StorageError{Op: "query", Err: err}
		}
		r.Track = record.ParseTrack(track)
		r.CreatedAt = parseCreatedAt(created)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &record.StorageError{Op: "query", Err: err}
	}
	return out, nil
}

func (s *SQLiteStore) DeleteByName(ctx context.Context, name string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM student_data WHERE Name = ?`, name)
	if err != nil {
		return 0, &record.StorageError{Op: "delete", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &record.StorageError{Op: "delete", Err: err}
	}
	return n, nil
}

func (s *SQLiteStore) DeleteByID(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM student_data WHERE id = ?`, id)
	if err != nil {
		return &record.StorageError{Op: "delete", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &record.StorageError{Op: "delete", Err: err}
	}
	if n == 0 {
		return record.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ResetAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &record.StorageError{Op: "reset", Err: err}
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM student_data`); err != nil {
		return &record.StorageError{Op: "reset", Err: err}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'student_data'`); err != nil {
		return &record.StorageError{Op: "reset", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &record.StorageError{Op: "reset", Err: err}
	}
	s.log.Info().Msg("all records removed")
	return nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{PerTrack: map[record.Track]int{}}
	var latest string
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COUNT(DISTINCT Name), COUNT(DISTINCT Subject),
        COALESCE(CAST(MAX(created_at) AS TEXT), '') FROM student_data`).
		Scan(&st.TotalRecords, &st.Students, &st.Subjects, &latest)
	if err != nil {
		return nil, &record.StorageError{Op: "stats", Err: err}
	}
	st.LatestEntry = parseCreatedAt(latest)

	rows, err := s.db.QueryContext(ctx, `SELECT COALESCE(Course, 'JEE'), COUNT(*) FROM student_data GROUP BY 1`)
	if err != nil {
		return nil, &record.StorageError{Op: "stats", Err: err}
	}
	defer rows.Close()
	for rows.Next() {
		var (
			course string
			n      int
		)
		if err := rows.Scan(&course, &n); err != nil {
			return nil, &record.StorageError{Op: "stats", Err: err}
		}
		st.PerTrack[record.ParseTrack(course)] += n
	}
	if err := rows.Err(); err != nil {
		return nil, &record.StorageError{Op: "stats", Err: err}
	}
	return st, nil
}

func (s *SQLiteStore) Students(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT Name FROM student_data ORDER BY Name`)
	if err != nil {
		return nil, &record.StorageError{Op: "students", Err: err}
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, &record.StorageError{Op: "students", Err: err}
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, &record.StorageError{Op: "students", Err: err}
	}
	return names, nil
}

func parseCreatedAt(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

