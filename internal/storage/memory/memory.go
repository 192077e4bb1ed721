// Package memory provides an in-process storage.Store used for tests and
// STORE_DRIVER=memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mmynk/rece/internal/storage"
)

var _ storage.Store = (*MemoryStore)(nil)

type MemoryStore struct {
	mu         sync.Mutex
	records    map[string]storage.Record
	failWrites bool
}

func New() *MemoryStore {
	return &MemoryStore{records: make(map[string]storage.Record)}
}

func (s *MemoryStore) LoadAll(_ context.Context) ([]storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]storage.Record, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, clone(rec))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return storage.Record{}, fmt.Errorf("receipt %s: %w", id, storage.ErrNotFound)
	}
	return clone(rec), nil
}

func (s *MemoryStore) Save(_ context.Context, rec storage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites {
		return fmt.Errorf("failed to save receipt %s: writes disabled", rec.ID)
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	s.records[rec.ID] = clone(rec)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWrites {
		return fmt.Errorf("failed to delete receipt %s: writes disabled", id)
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// SetFailWrites makes Save and Delete fail, to exercise persistence errors.
func (s *MemoryStore) SetFailWrites(fail bool) {
	s.mu.Lock()
	s.failWrites = fail
	s.mu.Unlock()
}

func clone(rec storage.Record) storage.Record {
	rec.Document = append([]byte(nil), rec.Document...)
	return rec
}
