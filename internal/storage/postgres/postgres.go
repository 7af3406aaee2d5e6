package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"voicetime/internal/storage"
)

// Store implements storage.Store on PostgreSQL
type Store struct {
	conn   *sql.DB
	logger zerolog.Logger
}

// Open creates a new database connection and prepares the schema
func Open(ctx context.Context, dsn string, logger zerolog.Logger) (*Store, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		conn:   conn,
		logger: logger.With().Str("component", "postgres").Logger(),
	}

	if err := s.createTables(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	s.migrateSchema(ctx)

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// Sessions returns the session store
func (s *Store) Sessions() storage.SessionStore { return &sessionStore{conn: s.conn} }

// Totals returns the totals store
func (s *Store) Totals() storage.TotalStore { return &totalStore{conn: s.conn} }

// createTables creates the necessary tables
func (s *Store) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			user_id TEXT PRIMARY KEY,
			channel_id TEXT NOT NULL,
			join_ts BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS totals (
			user_id TEXT PRIMARY KEY,
			total_ms BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS weekly_totals (
			user_id TEXT NOT NULL,
			week_start BIGINT NOT NULL,
			total_ms BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, week_start)
		)`,
	}

	for _, query := range queries {
		if _, err := s.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// migrateSchema applies idempotent schema changes on top of the base tables
func (s *Store) migrateSchema(ctx context.Context) {
	migrations := []string{
		// Tables imported from the SQLite layout allow NULL channel ids
		`UPDATE sessions SET channel_id = '' WHERE channel_id IS NULL`,
		`ALTER TABLE sessions ALTER COLUMN channel_id SET NOT NULL`,

		// Weekly ranking reads a whole bucket ordered by total
		`CREATE INDEX IF NOT EXISTS weekly_totals_week_idx ON weekly_totals (week_start, total_ms DESC)`,
		`CREATE INDEX IF NOT EXISTS totals_total_idx ON totals (total_ms DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.conn.ExecContext(ctx, migration); err != nil {
			s.logger.Warn().Err(err).Msg("Migration failed (this might be expected)")
		}
	}
}
