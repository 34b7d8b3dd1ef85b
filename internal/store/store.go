// Package store records acquisition outcomes in SQLite so operators can
// see what was fetched, what failed, and what still needs transcription.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS acquisitions (
	id                  TEXT PRIMARY KEY,
	url                 TEXT NOT NULL,
	title               TEXT NOT NULL DEFAULT '',
	folder              TEXT NOT NULL DEFAULT '',
	success             INTEGER NOT NULL,
	error               TEXT NOT NULL DEFAULT '',
	needs_transcription INTEGER NOT NULL DEFAULT 0,
	created_at          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_acquisitions_created ON acquisitions(created_at DESC);
`

// Store persists acquisition history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path with WAL
// journaling and a busy timeout, then applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Row is one recorded acquisition.
type Row struct {
	ID                 string
	URL                string
	Title              string
	Folder             string
	Success            bool
	Error              string
	NeedsTranscription bool
	CreatedAt          time.Time
}

// Record inserts one acquisition outcome. Returns the generated row ID.
func (s *Store) Record(ctx context.Context, row Row) (string, error) {
	id := row.ID
	if id == "" {
		id = uuid.NewString()
	}
	created := row.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO acquisitions (id, url, title, folder, success, error, needs_transcription, created_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		id, row.URL, row.Title, row.Folder, row.Success, row.Error,
		row.NeedsTranscription, created.Unix())
	if err != nil {
		return "", fmt.Errorf("store: record: %w", err)
	}
	return id, nil
}

// Recent returns the newest n acquisitions, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Row, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, title, folder, success, error, needs_transcription, created_at
		FROM acquisitions ORDER BY created_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var created int64
		if err := rows.Scan(&r.ID, &r.URL, &r.Title, &r.Folder, &r.Success,
			&r.Error, &r.NeedsTranscription, &created); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		r.CreatedAt = time.Unix(created, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}
