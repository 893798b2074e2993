package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS collections (
	name       TEXT PRIMARY KEY,
	records    JSONB NOT NULL DEFAULT '[]'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps every collection as one JSONB row.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres connects to dsn and makes sure the collections table exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating collections table: %w", err)
	}
	return &PostgresStore{pool: pool, logger: slog.Default()}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, collection string) []Record {
	var raw []byte
	err := s.pool.QueryRow(ctx, "SELECT records::text FROM collections WHERE name = $1", collection).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return []Record{}
	}
	if err != nil {
		s.logger.Error("reading collection", "collection", collection, "error", err)
		return []Record{}
	}
	records, err := decodeRecords(raw)
	if err != nil {
		s.logger.Error("parsing collection", "collection", collection, "error", err)
		return []Record{}
	}
	return records
}

func (s *PostgresStore) Save(ctx context.Context, collection string, records []Record) error {
	data, err := encodeRecords(records)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", collection, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO collections (name, records, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (name) DO UPDATE SET records = excluded.records, updated_at = excluded.updated_at`,
		collection, string(data),
	)
	if err != nil {
		s.logger.Error("writing collection", "collection", collection, "error", err)
		return fmt.Errorf("writing %s: %w", collection, err)
	}
	return nil
}
