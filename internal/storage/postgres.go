// Package storage persists enriched records in PostgreSQL. The link column
// is UNIQUE, so inserts are idempotent: re-inserting an already known record
// is a no-op, not an error.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/sirenfeed/siren/internal/pipeline"
)

type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open connects, verifies the connection, and creates the schema.
func Open(connectionString string, log *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	log.Info("database connected")
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sources (
		id SERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		link TEXT UNIQUE NOT NULL,
		date TIMESTAMPTZ NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		importance_bool BOOLEAN NOT NULL DEFAULT TRUE,
		importance_reasoning TEXT NOT NULL DEFAULT '',
		high_importance BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_sources_date ON sources(date);
	CREATE INDEX IF NOT EXISTS idx_sources_created_at ON sources(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Insert persists a record. It reports whether a new row was actually
// written; false means a row with the same link already existed.
func (s *Store) Insert(ctx context.Context, rec pipeline.Record) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sources (title, link, date, summary, importance_bool, importance_reasoning, high_importance)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (link) DO NOTHING`,
		rec.Title, rec.Link, rec.Date, rec.Summary, rec.Important, rec.ImportanceReasoning, rec.HighImportance)
	if err != nil {
		return false, fmt.Errorf("insert source: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert source: %w", err)
	}
	return affected > 0, nil
}

// HasTitleOrLink reports whether a row exists with the same link or a
// case-insensitive match on the title.
func (s *Store) HasTitleOrLink(ctx context.Context, title, link string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM sources WHERE UPPER(title) = UPPER($1) OR link = $2
		)`, title, link).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query existing source: %w", err)
	}
	return exists, nil
}

// Count returns the number of persisted records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sources`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sources: %w", err)
	}
	return n, nil
}

// Retention keys on the article's normalized date, not the insert time: a
// months-old story ingested today is still an old story.
const cleanupQuery = `DELETE FROM sources WHERE date < NOW() - $1 * INTERVAL '1 day'`

// CleanupOlderThan deletes records whose article date is older than the
// given number of days and returns how many were removed.
func (s *Store) CleanupOlderThan(ctx context.Context, days int) (int64, error) {
	res, err := s.db.ExecContext(ctx, cleanupQuery, days)
	if err != nil {
		return 0, fmt.Errorf("cleanup sources: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleanup sources: %w", err)
	}
	if removed > 0 {
		s.log.Info("old records removed", "count", removed, "older_than_days", days)
	}
	return removed, nil
}

// HealthCheck verifies the connection is alive.
func (s *Store) HealthCheck(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
