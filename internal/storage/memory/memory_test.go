package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/rece/internal/storage"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := New()

	doc := []byte(`{"title":"Dinner"}`)
	require.NoError(t, store.Save(ctx, storage.Record{ID: "b", Document: doc}))
	require.NoError(t, store.Save(ctx, storage.Record{ID: "a", Document: []byte(`{}`)}))

	// The store keeps its own copy.
	doc[2] = 'X'
	got, err := store.Load(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Dinner"}`, string(got.Document))
	assert.False(t, got.UpdatedAt.IsZero(), "UpdatedAt is stamped on save")

	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)

	require.NoError(t, store.Delete(ctx, "b"))
	_, err = store.Load(ctx, "b")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemoryStore_FailWrites(t *testing.T) {
	ctx := context.Background()
	store := New()
	require.NoError(t, store.Save(ctx, storage.Record{ID: "a", Document: []byte(`{}`)}))

	store.SetFailWrites(true)
	assert.Error(t, store.Save(ctx, storage.Record{ID: "b", Document: []byte(`{}`)}))
	assert.Error(t, store.Delete(ctx, "a"))

	store.SetFailWrites(false)
	_, err := store.Load(ctx, "a")
	assert.NoError(t, err, "failed delete left the record alone")
	_, err = store.Load(ctx, "b")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
