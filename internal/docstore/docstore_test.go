package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/rece/internal/money"
	"github.com/mmynk/rece/internal/storage"
	"github.com/mmynk/rece/internal/storage/memory"
)

func openStore(t *testing.T, backend storage.Store, opts ...Option) *Store {
	t.Helper()
	s, err := Open(context.Background(), backend, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sequentialKeys() Option {
	n := 0
	return WithKeyFunc(func() string {
		n++
		return fmt.Sprintf("k%d", n)
	})
}

func TestParsePath(t *testing.T) {
	p, err := ParsePath("/r1/items/i1/")
	require.NoError(t, err)
	assert.Equal(t, P("r1", "items", "i1"), p)
	assert.Equal(t, "r1/items/i1", p.String())
	assert.Equal(t, "r1", p.DocID())

	for _, bad := range []string{"", "/", "r1//items"} {
		_, err := ParsePath(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

func TestWriteAndGet(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, memory.New())

	require.NoError(t, s.Write(ctx, P("r1"), map[string]any{"title": "Dinner"}))
	require.NoError(t, s.Write(ctx, P("r1", "items", "i1"), map[string]any{
		"name": "Pizza", "cost": money.MustParse("9.5"), "quantity": 3,
	}))

	snap, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, snap.Exists)
	assert.Equal(t, "Dinner", snap.Data["title"])

	item := snap.Data["items"].(map[string]any)["i1"].(map[string]any)
	assert.Equal(t, json.Number("9.50"), item["cost"])
	assert.Equal(t, json.Number("3"), item["quantity"])

	// Snapshots are copies.
	item["name"] = "changed"
	again, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Pizza", again.Data["items"].(map[string]any)["i1"].(map[string]any)["name"])

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPush(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, memory.New(), sequentialKeys())

	id, err := s.Push(ctx, nil, map[string]any{"title": "Lunch"})
	require.NoError(t, err)
	assert.Equal(t, "k1", id)

	itemID, err := s.Push(ctx, P(id, "items"), map[string]any{"name": "Soup"})
	require.NoError(t, err)
	assert.Equal(t, "k2", itemID)

	snap, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, snap.Data["items"], "k2")
}

func TestRemovePrunesEmptyObjects(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, memory.New())

	require.NoError(t, s.Apply(ctx,
		Set(P("r1", "title"), "Dinner"),
		Set(P("r1", "shares", "i1", "p1"), 2),
	))
	require.NoError(t, s.Remove(ctx, P("r1", "shares", "i1", "p1")))

	snap, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.NotContains(t, snap.Data, "shares")

	// Removing something that is not there changes nothing.
	require.NoError(t, s.Remove(ctx, P("r1", "people", "nobody")))

	require.NoError(t, s.Remove(ctx, P("r1", "title")))
	_, err = s.Get(ctx, "r1")
	assert.ErrorIs(t, err, ErrNotFound, "a document with no fields is deleted")
}

func TestApplyValidatesBatch(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, memory.New())

	err := s.Apply(ctx, Set(P("r1", "title"), "a"), Set(P("r2", "title"), "b"))
	assert.ErrorIs(t, err, ErrMixedBatch)

	err = s.Apply(ctx, Set(Path{}, "a"))
	assert.ErrorIs(t, err, ErrInvalidPath)

	err = s.Write(ctx, P("r1"), "not an object")
	assert.ErrorIs(t, err, ErrInvalidValue)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestApplyIsAtomicOnBackendFailure(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	s := openStore(t, backend)
	require.NoError(t, s.Write(ctx, P("r1", "title"), "Dinner"))

	backend.SetFailWrites(true)
	err := s.Apply(ctx,
		Set(P("r1", "title"), "Lunch"),
		Set(P("r1", "taxCost"), 4),
	)
	require.Error(t, err)

	snap, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "Dinner", snap.Data["title"])
	assert.NotContains(t, snap.Data, "taxCost")
}

func TestOpenLoadsPersistedDocuments(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	require.NoError(t, backend.Save(ctx, storage.Record{ID: "r1", Document: []byte(`{"title":"Saved","total":12.30}`)}))
	require.NoError(t, backend.Save(ctx, storage.Record{ID: "bad", Document: []byte(`[1,2]`)}))

	s := openStore(t, backend)
	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "r1", list[0].ID)
	assert.Equal(t, json.Number("12.30"), list[0].Data["total"])
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, memory.New())

	snaps := make(chan Snapshot, 16)
	cancel := s.Subscribe(ctx, "r1", func(snap Snapshot) { snaps <- snap })

	first := receive(t, snaps)
	assert.False(t, first.Exists)

	require.NoError(t, s.Write(ctx, P("r1", "title"), "Dinner"))
	second := receive(t, snaps)
	assert.True(t, second.Exists)
	assert.Equal(t, "Dinner", second.Data["title"])
	assert.Greater(t, second.Version, first.Version)

	// Writes to other documents are not delivered.
	require.NoError(t, s.Write(ctx, P("r2", "title"), "Other"))

	require.NoError(t, s.Remove(ctx, P("r1")))
	third := receive(t, snaps)
	assert.False(t, third.Exists)

	cancel()
	cancel()
	require.NoError(t, s.Write(ctx, P("r1", "title"), "After"))
	assertNoSnapshot(t, snaps)
}

func TestSubscribeEndsWithContext(t *testing.T) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	s := openStore(t, memory.New())

	snaps := make(chan Snapshot, 16)
	s.Subscribe(ctx, "r1", func(snap Snapshot) { snaps <- snap })
	receive(t, snaps)

	cancelCtx()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.subs) == 0
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, s.Write(context.Background(), P("r1", "title"), "After"))
	assertNoSnapshot(t, snaps)
}

func TestSubscribeCoalescesForSlowConsumers(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, memory.New())

	release := make(chan struct{})
	snaps := make(chan Snapshot, 64)
	cancel := s.Subscribe(ctx, "r1", func(snap Snapshot) {
		<-release
		snaps <- snap
	})
	defer cancel()

	for i := 0; i < 10; i++ {
		require.NoError(t, s.Write(ctx, P("r1", "n"), i))
	}
	close(release)

	var last Snapshot
	require.Eventually(t, func() bool {
		for {
			select {
			case snap := <-snaps:
				assert.GreaterOrEqual(t, snap.Version, last.Version)
				last = snap
			default:
				return last.Exists && last.Data["n"] == json.Number("9")
			}
		}
	}, time.Second, 10*time.Millisecond)
}

func receive(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func assertNoSnapshot(t *testing.T, ch <-chan Snapshot) {
	t.Helper()
	select {
	case snap := <-ch:
		t.Errorf("unexpected snapshot: %+v", snap)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestApplyHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := openStore(t, memory.New())

	err := s.Write(ctx, P("r1", "title"), "x")
	assert.True(t, errors.Is(err, context.Canceled))
}
