package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore persists generated insights and serves stored per-file
// summaries for a project.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

// EnsureSchema creates the tables this store uses when they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS summaries (
    project  TEXT NOT NULL,
    path     TEXT NOT NULL,
    summary  TEXT NOT NULL,
    PRIMARY KEY (project, path)
);
CREATE TABLE IF NOT EXISTS insights (
    project      TEXT NOT NULL,
    category     TEXT NOT NULL,
    payload      JSONB NOT NULL,
    generated_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (project, category)
);`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// SaveInsight upserts one category's payload for a project.
func (s *PostgresStore) SaveInsight(ctx context.Context, project, category string, payload []byte) error {
	const q = `
INSERT INTO insights (project, category, payload, generated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (project, category)
DO UPDATE SET payload = EXCLUDED.payload, generated_at = EXCLUDED.generated_at`
	if _, err := s.db.ExecContext(ctx, q, project, category, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("store: save insight %s/%s: %w", project, category, err)
	}
	return nil
}

// LoadSummaries returns a project's per-file summaries in path order.
func (s *PostgresStore) LoadSummaries(ctx context.Context, project string) ([]SourceSummary, error) {
	const q = `SELECT path, summary FROM summaries WHERE project = $1 ORDER BY path`
	rows, err := s.db.QueryContext(ctx, q, project)
	if err != nil {
		return nil, fmt.Errorf("store: load summaries: %w", err)
	}
	defer rows.Close()

	var out []SourceSummary
	for rows.Next() {
		var sm SourceSummary
		if err := rows.Scan(&sm.Path, &sm.Summary); err != nil {
			return nil, fmt.Errorf("store: scan summary: %w", err)
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}
