package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmynk/rece/internal/storage"
)

func TestSQLiteStore(t *testing.T) {
	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "rece-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "nested", "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	t.Run("Save then Load round-trips the document", func(t *testing.T) {
		rec := storage.Record{
			ID:        "receipt_a",
			Document:  []byte(`{"title":"Dinner","total":12.5}`),
			UpdatedAt: time.UnixMilli(1700000000000),
		}
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := store.Load(ctx, "receipt_a")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if string(got.Document) != string(rec.Document) {
			t.Errorf("Document mismatch: got %s, want %s", got.Document, rec.Document)
		}
		if !got.UpdatedAt.Equal(rec.UpdatedAt) {
			t.Errorf("UpdatedAt mismatch: got %v, want %v", got.UpdatedAt, rec.UpdatedAt)
		}
	})

	t.Run("Save replaces an existing document", func(t *testing.T) {
		if err := store.Save(ctx, storage.Record{ID: "receipt_a", Document: []byte(`{"title":"Lunch"}`)}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, err := store.Load(ctx, "receipt_a")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if string(got.Document) != `{"title":"Lunch"}` {
			t.Errorf("Document = %s, want replaced value", got.Document)
		}
		if got.UpdatedAt.IsZero() {
			t.Error("Expected UpdatedAt to be set")
		}
	})

	t.Run("LoadAll returns records ordered by ID", func(t *testing.T) {
		if err := store.Save(ctx, storage.Record{ID: "receipt_0", Document: []byte(`{}`)}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		records, err := store.LoadAll(ctx)
		if err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("Expected 2 records, got %d", len(records))
		}
		if records[0].ID != "receipt_0" || records[1].ID != "receipt_a" {
			t.Errorf("Unexpected order: %s, %s", records[0].ID, records[1].ID)
		}
	})

	t.Run("Load returns ErrNotFound for missing document", func(t *testing.T) {
		_, err := store.Load(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete removes the document and tolerates repeats", func(t *testing.T) {
		if err := store.Delete(ctx, "receipt_a"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := store.Delete(ctx, "receipt_a"); err != nil {
			t.Fatalf("Second delete failed: %v", err)
		}
		if _, err := store.Load(ctx, "receipt_a"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("Documents survive reopening", func(t *testing.T) {
		reopened, err := New(dbPath)
		if err != nil {
			t.Fatalf("Failed to reopen store: %v", err)
		}
		defer reopened.Close()

		if _, err := reopened.Load(ctx, "receipt_0"); err != nil {
			t.Errorf("Load after reopen failed: %v", err)
		}
	})
}
