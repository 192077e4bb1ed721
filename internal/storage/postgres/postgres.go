// Package postgres provides a PostgreSQL-backed implementation of the storage.Store interface.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mmynk/rece/internal/storage"
)

var _ storage.Store = (*PostgresStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS receipts (
    id TEXT PRIMARY KEY,
    document JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
`

// PostgresStore implements storage.Store on a receipts table with a JSONB column.
type PostgresStore struct {
	db *sql.DB
}

// New connects to connStr, verifies the connection and ensures the schema.
func New(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) LoadAll(ctx context.Context) ([]storage.Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, document, updated_at FROM receipts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var records []storage.Record
	for rows.Next() {
		var rec storage.Record
		if err := rows.Scan(&rec.ID, &rec.Document, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipts: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Load(ctx context.Context, id string) (storage.Record, error) {
	var rec storage.Record
	err := s.db.QueryRowContext(ctx,
		"SELECT id, document, updated_at FROM receipts WHERE id = $1", id,
	).Scan(&rec.ID, &rec.Document, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Record{}, fmt.Errorf("receipt %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return storage.Record{}, fmt.Errorf("failed to get receipt: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Save(ctx context.Context, rec storage.Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO receipts (id, document, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`,
		rec.ID, string(rec.Document), rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save receipt: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM receipts WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	return nil
}
