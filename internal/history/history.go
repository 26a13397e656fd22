// Package history keeps a local SQLite log of capture runs.
//
// Only metadata is stored (URL, outcome, size, timing). Captured bytes
// never touch the database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // CGO-free SQLite
)

// Sentinel errors for history operations.
var (
	ErrEmptyRun   = errors.New("history: run has no entries")
	ErrInvalidURL = errors.New("history: entry URL cannot be empty")
)

// Query limits.
const (
	DefaultLimit = 20
	MaxLimit     = 1000
)

// Entry is one captured URL within a run.
type Entry struct {
	RunID      string        `json:"run_id"`
	URL        string        `json:"url"`
	Format     string        `json:"format"`
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
	Bytes      int           `json:"bytes"`
	Duration   time.Duration `json:"duration_ns"`
	CapturedAt time.Time     `json:"captured_at"`
}

// Run summarizes one CLI invocation.
type Run struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Count     int           `json:"count"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration_ns"` // sum of entry durations
}

// Store is a handle on the history database. Safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath returns the history database location under the user cache
// directory.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving cache dir: %w", err)
	}
	return filepath.Join(dir, "go-webshot", "history.db"), nil
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	// WAL + busy timeout to avoid "database is locked" across concurrent runs
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS captures(
	  id          INTEGER PRIMARY KEY,
	  run_id      TEXT    NOT NULL,
	  url         TEXT    NOT NULL,
	  format      TEXT    NOT NULL,
	  success     INTEGER NOT NULL CHECK (success IN (0, 1)),
	  error       TEXT    NOT NULL DEFAULT '',
	  bytes       INTEGER NOT NULL DEFAULT 0,
	  duration_ms INTEGER NOT NULL,
	  captured_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_captures_run  ON captures(run_id);
	CREATE INDEX IF NOT EXISTS idx_captures_time ON captures(captured_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to create history tables: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores entries under a new run ID and returns it.
// Entries are written in one transaction: all or nothing.
func (s *Store) Record(ctx context.Context, entries []Entry) (string, error) {
	if len(entries) == 0 {
		return "", ErrEmptyRun
	}
	for i, e := range entries {
		if e.URL == "" {
			return "", fmt.Errorf("%w (entry %d)", ErrInvalidURL, i)
		}
	}

	runID := uuid.NewString()
	at := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO captures(run_id, url, format, success, error, bytes, duration_ms, captured_at) VALUES(?,?,?,?,?,?,?,?)`)
	if err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		capturedAt := e.CapturedAt
		if capturedAt.IsZero() {
			capturedAt = at
		}
		success := 0
		if e.Success {
			success = 1
		}
		if _, err := stmt.ExecContext(ctx, runID, e.URL, e.Format, success, e.Error, e.Bytes, e.Duration.Milliseconds(), capturedAt.UnixMilli()); err != nil {
			_ = tx.Rollback()
			return "", fmt.Errorf("failed to insert capture: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return runID, nil
}

// Recent returns the latest entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT run_id, url, format, success, error, bytes, duration_ms, captured_at
	FROM captures ORDER BY captured_at DESC, id DESC LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query captures: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			success    int
			durationMS int64
			capturedAt int64
		)
		if err := rows.Scan(&e.RunID, &e.URL, &e.Format, &success, &e.Error, &e.Bytes, &durationMS, &capturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan capture: %w", err)
		}
		e.Success = success == 1
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.CapturedAt = time.UnixMilli(capturedAt).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Runs returns per-run summaries, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT run_id, MIN(captured_at), COUNT(*), SUM(success), SUM(duration_ms)
	FROM captures GROUP BY run_id ORDER BY MIN(captured_at) DESC, MIN(id) DESC LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			startedAt  int64
			durationMS int64
		)
		if err := rows.Scan(&r.ID, &startedAt, &r.Count, &r.Succeeded, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Failed = r.Count - r.Succeeded
		r.StartedAt = time.UnixMilli(startedAt).UTC()
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func clampLimit(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	return min(n, MaxLimit)
}
