// Package metastore is the Metadata Store: a durable per-entry key-value
// row (access_count, last_verified, project_id) in a WAL-mode sqlite
// database, grounded on the teacher's internal/memory/db.go.
package metastore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS entry_meta (
	path TEXT PRIMARY KEY,
	project_id TEXT NOT NULL DEFAULT '',
	access_count INTEGER NOT NULL DEFAULT 0,
	accessed_at DATETIME,
	last_verified DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entry_meta_project ON entry_meta(project_id);
`

// Store is the concrete sqlite-backed metadata store. Unlike the
// teacher's SQLiteMemoryDB (mattn/go-sqlite3, cgo), this uses the
// pure-Go modernc.org/sqlite driver so the server binary stays
// cgo-free.
type Store struct {
	db *sql.DB
	mu writeMutex
}

// writeMutex serializes writer goroutines through Go's connection
// pool; WAL mode permits concurrent readers with a single writer, but
// database/sql can still interleave two writer goroutines without an
// explicit mutex (see DESIGN.md / SPEC_FULL.md §7).
type writeMutex struct{ ch chan struct{} }

func newWriteMutex() writeMutex {
	m := writeMutex{ch: make(chan struct{}, 1)}
	m.ch <- struct{}{}
	return m
}

func (m writeMutex) lock()   { <-m.ch }
func (m writeMutex) unlock() { m.ch <- struct{}{} }

// Open creates (if needed) and migrates the metadata store at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("metastore: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("metastore: open: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	s := &Store{db: db, mu: newWriteMutex()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("metastore: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return fmt.Errorf("check schema version: %w", err)
	}
	if count == 0 {
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES (1)"); err != nil {
			return fmt.Errorf("seed schema version: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// withTx executes fn inside a transaction, serialized behind the
// write mutex, mirroring the teacher's withTx helper.
func (s *Store) withTx(fn func(*sql.Tx) error) error {
	s.mu.lock()
	defer s.mu.unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Row is one entry's metadata.
type Row struct {
	Path         string
	ProjectID    string
	AccessCount  int64
	AccessedAt   *time.Time
	LastVerified *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Init creates a metadata row for a newly-created entry.
func (s *Store) Init(path, projectID string) error {
	now := time.Now().UTC()
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO entry_meta(path, project_id, access_count, created_at, updated_at)
			VALUES (?, ?, 0, ?, ?)
			ON CONFLICT(path) DO NOTHING`,
			path, projectID, now, now)
		return err
	})
}

// RecordAccess increments access_count and sets accessed_at. If no
// row exists (e.g. reconciling after a file-first write whose meta
// write previously failed, per spec.md §7), it creates one.
func (s *Store) RecordAccess(path string) error {
	now := time.Now().UTC()
	return s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE entry_meta SET access_count = access_count + 1, accessed_at = ?, updated_at = ?
			WHERE path = ?`, now, now, path)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
		_, err = tx.Exec(`
			INSERT INTO entry_meta(path, project_id, access_count, accessed_at, created_at, updated_at)
			VALUES (?, '', 1, ?, ?, ?)`, path, now, now, now)
		return err
	})
}

// Verify bumps last_verified to now.
func (s *Store) Verify(path string) error {
	now := time.Now().UTC()
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`UPDATE entry_meta SET last_verified = ?, updated_at = ? WHERE path = ?`, now, now, path)
		return err
	})
}

// Delete removes the metadata row for path, if any.
func (s *Store) Delete(path string) error {
	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM entry_meta WHERE path = ?`, path)
		return err
	})
}

// Get fetches the metadata row for path, or nil if absent.
func (s *Store) Get(path string) (*Row, error) {
	row := s.db.QueryRow(`
		SELECT path, project_id, access_count, accessed_at, last_verified, created_at, updated_at
		FROM entry_meta WHERE path = ?`, path)

	var r Row
	var accessedAt, lastVerified sql.NullTime
	if err := row.Scan(&r.Path, &r.ProjectID, &r.AccessCount, &accessedAt, &lastVerified, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("metastore: get: %w", err)
	}
	if accessedAt.Valid {
		r.AccessedAt = &accessedAt.Time
	}
	if lastVerified.Valid {
		r.LastVerified = &lastVerified.Time
	}
	return &r, nil
}

// Stale returns rows whose last_verified (or created_at, if never
// verified) is older than the given threshold, used by the Entry
// Service's listStale operation.
func (s *Store) Stale(olderThan time.Duration, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = -1 // sqlite treats a negative LIMIT as unbounded
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	rows, err := s.db.Query(`
		SELECT path, project_id, access_count, accessed_at, last_verified, created_at, updated_at
		FROM entry_meta
		WHERE COALESCE(last_verified, created_at) < ?
		ORDER BY COALESCE(last_verified, created_at) ASC
		LIMIT ?`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("metastore: stale: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var accessedAt, lastVerified sql.NullTime
		if err := rows.Scan(&r.Path, &r.ProjectID, &r.AccessCount, &accessedAt, &lastVerified, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		if accessedAt.Valid {
			r.AccessedAt = &accessedAt.Time
		}
		if lastVerified.Valid {
			r.LastVerified = &lastVerified.Time
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
