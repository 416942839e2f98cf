// Package store persists pipeline outputs in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ResultKind distinguishes derived results.
type ResultKind string

const (
	KindSummary    ResultKind = "summary"
	KindEnrichment ResultKind = "enrichment"
)

// Video is one transcribed video.
type Video struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Transcript string    `json:"transcript"`
	CreatedAt  time.Time `json:"timestamp"`
}

// Result is one derived output (summary or enrichment).
type Result struct {
	ID        string     `json:"id"`
	Kind      ResultKind `json:"-"`
	Result    string     `json:"result"`
	CreatedAt time.Time  `json:"timestamp"`
}

const schema = `
CREATE TABLE IF NOT EXISTS videos (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	transcript TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS results (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	result     TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_videos_created_at ON videos(created_at DESC);
`

// Store wraps the SQLite database holding transcribed videos and derived
// results.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// SaveVideo records a transcribed video.
func (s *Store) SaveVideo(ctx context.Context, v Video) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO videos (id, url, transcript, created_at) VALUES (?, ?, ?, ?)`,
		v.ID, v.URL, v.Transcript, v.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save video: %w", err)
	}

	return nil
}

// SaveResult records a derived result.
func (s *Store) SaveResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (id, kind, result, created_at) VALUES (?, ?, ?, ?)`,
		r.ID, string(r.Kind), r.Result, r.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}

	return nil
}

// ListVideos returns the most recently transcribed videos, newest first.
func (s *Store) ListVideos(ctx context.Context, limit int) ([]Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, transcript, created_at FROM videos ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	videos := []Video{}
	for rows.Next() {
		var v Video
		if err := rows.Scan(&v.ID, &v.URL, &v.Transcript, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
