package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cathteng/bufo-stickers/internal/domain"
	_ "github.com/lib/pq"
)

const runSchemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	size_class TEXT NOT NULL,
	source_dir TEXT NOT NULL,
	summary JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

type PostgresRunStore struct {
	db *sql.DB
}

func NewPostgresRunStore(ctx context.Context, dsn string) (*PostgresRunStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresRunStore{db: db}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresRunStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, runSchemaSQL); err != nil {
		return fmt.Errorf("ensure runs schema: %w", err)
	}
	return nil
}

func (s *PostgresRunStore) Close() error {
	return s.db.Close()
}

func (s *PostgresRunStore) Create(ctx context.Context, run domain.Run) error {
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, status, size_class, source_dir, summary, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID,
		run.Status,
		run.SizeClass,
		run.SourceDir,
		summaryJSON,
		run.CreatedAt,
		run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	return nil
}

func (s *PostgresRunStore) Get(ctx context.Context, id string) (domain.Run, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, status, size_class, source_dir, summary, created_at, updated_at
		 FROM runs
		 WHERE id = $1`,
		id,
	)

	var (
		run         domain.Run
		summaryJSON []byte
	)
	if err := row.Scan(
		&run.ID,
		&run.Status,
		&run.SizeClass,
		&run.SourceDir,
		&summaryJSON,
		&run.CreatedAt,
		&run.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Run{}, false, nil
		}
		return domain.Run{}, false, fmt.Errorf("query run: %w", err)
	}

	if err := json.Unmarshal(summaryJSON, &run.Summary); err != nil {
		return domain.Run{}, false, fmt.Errorf("unmarshal run summary: %w", err)
	}

	return run, true, nil
}

func (s *PostgresRunStore) Finish(ctx context.Context, id, status string, summary domain.RunSummary) (domain.Run, error) {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return domain.Run{}, fmt.Errorf("marshal run summary: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(
		ctx,
		`UPDATE runs
		 SET status = $1, summary = $2, updated_at = $3
		 WHERE id = $4`,
		status,
		summaryJSON,
		now,
		id,
	)
	if err != nil {
		return domain.Run{}, fmt.Errorf("update run: %w", err)
	}

	run, ok, err := s.Get(ctx, id)
	if err != nil {
		return domain.Run{}, err
	}
	if !ok {
		return domain.Run{}, ErrRunNotFound
	}

	return run, nil
}
