// Package db provides PostgreSQL storage for loaded documents.
package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaSQL creates the tables used by the reader. Every statement is idempotent.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS reader_runs (
    id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    endpoint       TEXT NOT NULL,
    fields         TEXT NOT NULL,
    status         TEXT NOT NULL,
    document_count INTEGER NOT NULL DEFAULT 0,
    error_message  TEXT,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS documents (
    id           UUID PRIMARY KEY,
    source       TEXT NOT NULL,
    run_id       UUID REFERENCES reader_runs(id) ON DELETE SET NULL,
    position     INTEGER NOT NULL,
    text         TEXT NOT NULL,
    metadata     JSONB NOT NULL DEFAULT '{}'::jsonb,
    content_hash TEXT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS documents_source_idx ON documents (source, position);
`

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the reader tables if they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// CreateRun creates a new load run record and returns its ID
func (db *DB) CreateRun(ctx context.Context, endpoint, fields string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO reader_runs (endpoint, fields, status)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		endpoint, fields, RunStatusRunning,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a load run as finished. A non-nil runErr records a failure.
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, documentCount int, runErr error) error {
	status := RunStatusCompleted
	var message *string
	if runErr != nil {
		status = RunStatusFailed
		msg := runErr.Error()
		message = &msg
	}

	_, err := db.pool.Exec(ctx,
		`UPDATE reader_runs
		 SET status = $1, document_count = $2, error_message = $3, completed_at = NOW()
		 WHERE id = $4`,
		status, documentCount, message, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a load run by ID
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, endpoint, fields, status, document_count, error_message, created_at, completed_at
		 FROM reader_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.Endpoint, &run.Fields, &run.Status, &run.DocumentCount,
		&run.ErrorMessage, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}
