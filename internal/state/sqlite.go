package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-based state store.
// Use ":memory:" for an in-memory database, or a file path for persistent
// storage. Parent directories of a file path are created as needed.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create state directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		source_path TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		output_path TEXT NOT NULL,
		build_id TEXT NOT NULL,
		built_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pages_build_id ON pages(build_id);
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		rendered INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		failed INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_finished_at ON builds(finished_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// GetPage returns the record for a source path, or nil when unknown.
func (s *SQLiteStore) GetPage(ctx context.Context, sourcePath string) (*PageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT source_path, fingerprint, output_path, build_id, built_at FROM pages WHERE source_path = ?",
		sourcePath,
	)

	rec, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query page: %w", err)
	}
	return rec, nil
}

// PutPage inserts or replaces the record for a source path.
func (s *SQLiteStore) PutPage(ctx context.Context, rec PageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pages (source_path, fingerprint, output_path, build_id, built_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(source_path) DO UPDATE SET
		   fingerprint = excluded.fingerprint,
		   output_path = excluded.output_path,
		   build_id = excluded.build_id,
		   built_at = excluded.built_at`,
		rec.SourcePath, rec.Fingerprint, rec.OutputPath, rec.BuildID, rec.BuiltAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("upsert page: %w", err)
	}
	return nil
}

// Pages returns all page records ordered by source path.
func (s *SQLiteStore) Pages(ctx context.Context) ([]PageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT source_path, fingerprint, output_path, build_id, built_at FROM pages ORDER BY source_path",
	)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	var records []PageRecord
	for rows.Next() {
		rec, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}

// PrunePages removes records whose source path is not in keep and returns
// the removed records so callers can clean their outputs.
func (s *SQLiteStore) PrunePages(ctx context.Context, keep map[string]struct{}) ([]PageRecord, error) {
	all, err := s.Pages(ctx)
	if err != nil {
		return nil, err
	}

	var victims []PageRecord
	for _, rec := range all {
		if _, ok := keep[rec.SourcePath]; !ok {
			victims = append(victims, rec)
		}
	}
	if len(victims) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin prune: %w", err)
	}
	for _, rec := range victims {
		if _, err := tx.ExecContext(ctx, "DELETE FROM pages WHERE source_path = ?", rec.SourcePath); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("delete page %s: %w", rec.SourcePath, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit prune: %w", err)
	}
	return victims, nil
}

// RecordBuild stores a completed build summary.
func (s *SQLiteStore) RecordBuild(ctx context.Context, rec BuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (id, started_at, finished_at, outcome, rendered, skipped, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   started_at = excluded.started_at,
		   finished_at = excluded.finished_at,
		   outcome = excluded.outcome,
		   rendered = excluded.rendered,
		   skipped = excluded.skipped,
		   failed = excluded.failed`,
		rec.ID, rec.StartedAt.UnixNano(), rec.FinishedAt.UnixNano(), rec.Outcome, rec.Rendered, rec.Skipped, rec.Failed,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// LastBuild returns the most recently finished build, or nil when none.
func (s *SQLiteStore) LastBuild(ctx context.Context) (*BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, started_at, finished_at, outcome, rendered, skipped, failed FROM builds ORDER BY finished_at DESC, id DESC LIMIT 1",
	)

	var rec BuildRecord
	var startedNano, finishedNano int64
	err := row.Scan(&rec.ID, &startedNano, &finishedNano, &rec.Outcome, &rec.Rendered, &rec.Skipped, &rec.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last build: %w", err)
	}
	rec.StartedAt = time.Unix(0, startedNano)
	rec.FinishedAt = time.Unix(0, finishedNano)
	return &rec, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (*PageRecord, error) {
	var rec PageRecord
	var builtNano int64
	if err := row.Scan(&rec.SourcePath, &rec.Fingerprint, &rec.OutputPath, &rec.BuildID, &builtNano); err != nil {
		return nil, err
	}
	rec.BuiltAt = time.Unix(0, builtNano)
	return &rec, nil
}
