package manifest

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore keeps entries in the pipeline_manifest table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects, pings and applies pending migrations.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("manifest: postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("manifest: postgres ping: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close shuts down the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// migrate applies embedded migrations in name order, tracked in schema_migrations.
func (s *PostgresStore) migrate(ctx context.Context) error {
	const createTracker = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`
	if _, err := s.pool.Exec(ctx, createTracker); err != nil {
		return fmt.Errorf("manifest: create schema_migrations: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("manifest: read migrations: %w", err)
	}
	slices.SortFunc(entries, func(a, b fs.DirEntry) int { return strings.Compare(a.Name(), b.Name()) })

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		var applied bool
		if err := s.pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)", name,
		).Scan(&applied); err != nil {
			return fmt.Errorf("manifest: check migration %s: %w", name, err)
		}
		if applied {
			continue
		}
		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("manifest: read migration %s: %w", name, err)
		}
		err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(data)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "INSERT INTO schema_migrations (filename) VALUES ($1)", name)
			return err
		})
		if err != nil {
			return fmt.Errorf("manifest: apply migration %s: %w", name, err)
		}
	}
	return nil
}

func (s *PostgresStore) Record(ctx context.Context, e Entry) error {
	inputs := e.Inputs
	if inputs == nil {
		inputs = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pipeline_manifest (run_id, stage, path, row_count, rejected, inputs, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.RunID, e.Stage, e.Path, e.Rows, e.Rejected, inputs, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("manifest: record %s: %w", e.Stage, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, stage string) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT run_id, stage, path, row_count, rejected, inputs, created_at
		FROM pipeline_manifest
		WHERE stage = $1
		ORDER BY created_at, path`, stage)
	if err != nil {
		return nil, fmt.Errorf("manifest: list %s: %w", stage, err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		var n, rejected int64
		err := row.Scan(&e.RunID, &e.Stage, &e.Path, &n, &rejected, &e.Inputs, &e.CreatedAt)
		e.Rows, e.Rejected = int(n), int(rejected)
		e.CreatedAt = e.CreatedAt.UTC()
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("manifest: list %s: %w", stage, err)
	}
	return entries, nil
}

var _ Store = (*PostgresStore)(nil)
