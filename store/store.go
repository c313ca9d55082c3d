// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: store.go - SQLite history of run reports
//
// Purpose:
//   - Persists every sealed report so past runs can be listed and re-printed.
//   - Keeps a few scalar columns for ordering and listing; the full report is
//     stored as its JSON body and re-verified against its digest on load.
//
// Notes:
//   - One writer at a time is plenty: runs finish in milliseconds and a CLI
//     invocation saves at most a handful of reports.
// ─────────────────────────────────────────────────────────────────────────────

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"chameneos/report"
)

// ErrNotFound is returned by Load for an unknown run id.
var ErrNotFound = errors.New("store: run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  INTEGER NOT NULL,
	grp         TEXT NOT NULL,
	strategy    TEXT NOT NULL,
	actors      INTEGER NOT NULL,
	meetings    INTEGER NOT NULL,
	elapsed_ns  INTEGER NOT NULL,
	digest      TEXT NOT NULL,
	body        BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at DESC);
`

// Store is a report history backed by one SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" works for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema in %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts r. Saving the same id twice fails.
func (s *Store) Save(ctx context.Context, r *report.Report) error {
	body, err := report.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", r.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, grp, strategy, actors, meetings, elapsed_ns, digest, body)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UnixNano(), r.Group, r.Strategy, len(r.Counts),
		int64(r.Meetings), r.ElapsedNS, r.Digest, body,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}
	return nil
}

// Load fetches and verifies one report.
func (s *Store) Load(ctx context.Context, id string) (*report.Report, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM runs WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select run %s: %w", id, err)
	}
	return report.Unmarshal(body)
}

// List returns up to limit reports, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]*report.Report, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*report.Report
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r, err := report.Unmarshal(body)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the number of stored runs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}
