package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the build history database. Use ":memory:"
// for an in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		build_id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER,
		outcome TEXT,
		modules INTEGER NOT NULL DEFAULT 0,
		chunks INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		detail TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_build_id ON events(build_id);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordBuildStarted inserts the build row at the start of a run.
func (s *SQLiteStore) RecordBuildStarted(ctx context.Context, buildID, mode string, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (build_id, mode, started_at) VALUES (?, ?, ?)",
		buildID, mode, startedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// RecordBuildFinished closes the build row with its outcome and totals.
func (s *SQLiteStore) RecordBuildFinished(ctx context.Context, buildID, outcome string, finishedAt time.Time, modules, chunks int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE builds SET finished_at = ?, outcome = ?, modules = ?, chunks = ? WHERE build_id = ?",
		finishedAt.Unix(), outcome, modules, chunks, buildID,
	)
	if err != nil {
		return fmt.Errorf("update build: %w", err)
	}
	return nil
}

// AppendEvent adds one event to a build's log.
func (s *SQLiteStore) AppendEvent(ctx context.Context, buildID, eventType, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (build_id, event_type, timestamp, detail) VALUES (?, ?, ?, ?)",
		buildID, eventType, time.Now().Unix(), detail,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// RecentBuilds returns the newest builds first.
func (s *SQLiteStore) RecentBuilds(ctx context.Context, limit int) ([]BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT build_id, mode, started_at, finished_at, outcome, modules, chunks FROM builds ORDER BY started_at DESC, build_id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var out []BuildRecord
	for rows.Next() {
		var r BuildRecord
		var started int64
		var finished sql.NullInt64
		var outcome sql.NullString
		if err := rows.Scan(&r.BuildID, &r.Mode, &started, &finished, &outcome, &r.Modules, &r.Chunks); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		r.StartedAt = time.Unix(started, 0)
		if finished.Valid {
			r.FinishedAt = time.Unix(finished.Int64, 0)
		}
		r.Outcome = outcome.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// EventsForBuild returns a build's events in append order.
func (s *SQLiteStore) EventsForBuild(ctx context.Context, buildID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, build_id, event_type, timestamp, detail FROM events WHERE build_id = ? ORDER BY id",
		buildID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var ts int64
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.BuildID, &e.Type, &ts, &detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Timestamp = time.Unix(ts, 0)
		e.Detail = detail.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// NoopStore discards history. Used when no history database is configured.
type NoopStore struct{}

func (NoopStore) RecordBuildStarted(context.Context, string, string, time.Time) error {
	return nil
}

func (NoopStore) RecordBuildFinished(context.Context, string, string, time.Time, int, int) error {
	return nil
}

func (NoopStore) AppendEvent(context.Context, string, string, string) error { return nil }

func (NoopStore) RecentBuilds(context.Context, int) ([]BuildRecord, error) { return nil, nil }

func (NoopStore) EventsForBuild(context.Context, string) ([]Event, error) { return nil, nil }

func (NoopStore) Close() error { return nil }
