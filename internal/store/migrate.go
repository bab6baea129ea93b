package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const createTable = `
CREATE TABLE IF NOT EXISTS student_data (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    Name TEXT NOT NULL,
    Course TEXT DEFAULT 'JEE',
    Month TEXT,
    Date TEXT,
    Subject TEXT,
    Topic TEXT,
    Rank INTEGER,
    Percentage REAL,
    Marks REAL,
    Average_Marks REAL,
    Highest_Mark REAL,
    Exam_Type TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

type migration struct {
	name string
	up   func(ctx context.Context, tx *sql.Tx) error
}

// migrations run in order; step i brings the schema to user_version i+1.
var migrations = []migration{
	{name: "create student_data", up: func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, createTable); err != nil {
			return err
		}
		// Databases from before tracks existed lack the Course column.
		return addColumnIfNotExists(ctx, tx, "student_data", "Course", "TEXT DEFAULT 'JEE'")
	}},
	{name: "index student names", up: func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_student_data_name ON student_data(Name)`)
		return err
	}},
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for i := version; i < len(migrations); i++ {
		m := migrations[i]
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := m.up(ctx, tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", i+1, m.name, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, i+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", i+1, m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		s.log.Debug().Int("version", i+1).Str("step", m.name).Msg("applied migration")
	}
	return nil
}

func addColumnIfNotExists(ctx context.Context, tx *sql.Tx, table, column, decl string) error {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return err
		}
		if strings.EqualFold(name, column) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl))
	return err
}
