// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Record is one persisted receipt document.
type Record struct {
	ID        string
	Document  []byte // JSON object
	UpdatedAt time.Time
}

// Store defines the interface for document persistence.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// memory) without changing the document store above it.
type Store interface {
	// LoadAll returns every stored record ordered by ID.
	LoadAll(ctx context.Context) ([]Record, error)

	// Load returns the record with the given ID, or ErrNotFound.
	Load(ctx context.Context, id string) (Record, error)

	// Save inserts or replaces a record.
	Save(ctx context.Context, rec Record) error

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}
