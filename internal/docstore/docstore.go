// Package docstore is the persistence gateway for receipt documents.
//
// Receipts are JSON objects addressed by Path. Writes are batched per
// document and applied atomically: either every op in a batch is persisted
// through the storage backend and published, or none is. Subscribers get
// the current snapshot and then one snapshot per committed change.
//
// All documents are held in memory; the backend is written through on every
// commit and read once when the store is opened.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/rece/internal/metrics"
	"github.com/mmynk/rece/internal/storage"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidPath  = errors.New("invalid path")
	ErrInvalidValue = errors.New("invalid value")
	ErrMixedBatch   = errors.New("batch spans more than one document")
)

// OpKind says what an Op does.
type OpKind int

const (
	OpSet OpKind = iota
	OpRemove
)

func (k OpKind) String() string {
	if k == OpRemove {
		return "remove"
	}
	return "set"
}

// Op is one write in a batch. Setting a nil value removes the node.
type Op struct {
	Kind  OpKind
	Path  Path
	Value any
}

// Set writes value at p, replacing whatever was there.
func Set(p Path, value any) Op {
	return Op{Kind: OpSet, Path: p, Value: value}
}

// Remove deletes the node at p. Removing a missing node is a no-op.
func Remove(p Path) Op {
	return Op{Kind: OpRemove, Path: p}
}

// Snapshot is the state of one document at a version. Data is a private
// copy owned by the receiver.
type Snapshot struct {
	ID        string
	Exists    bool
	Data      map[string]any
	Version   uint64
	UpdatedAt time.Time
}

type document struct {
	data      map[string]any
	version   uint64
	updatedAt time.Time
}

// Store is the document store. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	backend storage.Store
	docs    map[string]*document
	subs    map[string]map[string]*subscription
	version uint64

	newKey func() string
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithKeyFunc sets the generator for keys created by Push.
func WithKeyFunc(fn func() string) Option {
	return func(s *Store) { s.newKey = fn }
}

// Open loads every document from backend and returns a ready store.
// Documents that fail to decode are skipped with a warning.
func Open(ctx context.Context, backend storage.Store, opts ...Option) (*Store, error) {
	s := &Store{
		backend: backend,
		docs:    make(map[string]*document),
		subs:    make(map[string]map[string]*subscription),
		newKey:  func() string { return uuid.Must(uuid.NewV7()).String() },
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	records, err := backend.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	for _, rec := range records {
		data, err := decodeObject(rec.Document)
		if err != nil {
			slog.Warn("skipping unreadable document", "id", rec.ID, "error", err)
			continue
		}
		s.version++
		s.docs[rec.ID] = &document{data: data, version: s.version, updatedAt: rec.UpdatedAt}
	}
	slog.Info("document store opened", "documents", len(s.docs))
	return s, nil
}

// Close ends every subscription and closes the backend.
func (s *Store) Close() error {
	s.mu.Lock()
	var subs []*subscription
	for _, byID := range s.subs {
		for _, sub := range byID {
			subs = append(subs, sub)
		}
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.cancel()
	}
	return s.backend.Close()
}

// Get returns the current snapshot of document id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	metrics.DocstoreOps.WithLabelValues("get", "ok").Inc()
	snap := s.snapshotLocked(id)
	if !snap.Exists {
		return Snapshot{}, fmt.Errorf("receipt %s: %w", id, ErrNotFound)
	}
	return snap, nil
}

// List returns a snapshot of every document ordered by id, without
// subscribing to any of them.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	metrics.DocstoreOps.WithLabelValues("list", "ok").Inc()
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	snaps := make([]Snapshot, len(ids))
	for i, id := range ids {
		snaps[i] = s.snapshotLocked(id)
	}
	return snaps, nil
}

// Write sets value at p.
func (s *Store) Write(ctx context.Context, p Path, value any) error {
	return s.Apply(ctx, Set(p, value))
}

// Push stores value under a freshly generated key below parent and returns
// the key. An empty parent creates a new document.
func (s *Store) Push(ctx context.Context, parent Path, value any) (string, error) {
	key := s.newKey()
	if err := s.Apply(ctx, Set(parent.Child(key), value)); err != nil {
		return "", err
	}
	return key, nil
}

// Remove deletes the node at p.
func (s *Store) Remove(ctx context.Context, p Path) error {
	return s.Apply(ctx, Remove(p))
}

// Apply commits ops to a single document atomically. Empty objects left
// behind by a batch are pruned, and a document with no fields left is
// deleted.
func (s *Store) Apply(ctx context.Context, ops ...Op) error {
	if len(ops) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	id := ops[0].Path.DocID()
	values := make([]any, len(ops))
	for i, op := range ops {
		if err := op.Path.validate(); err != nil {
			return err
		}
		if op.Path.DocID() != id {
			return fmt.Errorf("%w: %s and %s", ErrMixedBatch, id, op.Path.DocID())
		}
		if op.Kind == OpSet {
			v, err := normalize(op.Value)
			if err != nil {
				return fmt.Errorf("%w at %s: %v", ErrInvalidValue, op.Path, err)
			}
			values[i] = v
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, existed := s.docs[id]
	var data map[string]any
	if existed {
		data = deepCopyMap(current.data)
	}
	for i, op := range ops {
		var err error
		data, err = applyOp(data, op.Path[1:], op.Kind, values[i])
		if err != nil {
			return fmt.Errorf("failed to apply %s %s: %w", op.Kind, op.Path, err)
		}
	}
	if data != nil {
		prune(data)
		if len(data) == 0 {
			data = nil
		}
	}

	now := s.now()
	if data == nil {
		if !existed {
			return nil
		}
		if err := s.backend.Delete(ctx, id); err != nil {
			metrics.DocstoreOps.WithLabelValues("apply", "error").Inc()
			return fmt.Errorf("failed to persist receipt %s: %w", id, err)
		}
	} else {
		b, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to encode receipt %s: %w", id, err)
		}
		if err := s.backend.Save(ctx, storage.Record{ID: id, Document: b, UpdatedAt: now}); err != nil {
			metrics.DocstoreOps.WithLabelValues("apply", "error").Inc()
			return fmt.Errorf("failed to persist receipt %s: %w", id, err)
		}
	}

	s.version++
	if data == nil {
		delete(s.docs, id)
	} else {
		s.docs[id] = &document{data: data, version: s.version, updatedAt: now}
	}
	metrics.DocstoreOps.WithLabelValues("apply", "ok").Inc()
	slog.Debug("document committed", "id", id, "ops", len(ops), "version", s.version, "deleted", data == nil)

	for _, sub := range s.subs[id] {
		sub.offer(s.snapshotLocked(id))
	}
	return nil
}

func (s *Store) snapshotLocked(id string) Snapshot {
	doc, ok := s.docs[id]
	if !ok {
		return Snapshot{ID: id, Version: s.version}
	}
	return Snapshot{
		ID:        id,
		Exists:    true,
		Data:      deepCopyMap(doc.data),
		Version:   doc.version,
		UpdatedAt: doc.updatedAt,
	}
}

// applyOp writes value at rel inside root and returns the new root.
func applyOp(root map[string]any, rel Path, kind OpKind, value any) (map[string]any, error) {
	remove := kind == OpRemove || value == nil
	if len(rel) == 0 {
		if remove {
			return nil, nil
		}
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: document root must be an object", ErrInvalidValue)
		}
		return obj, nil
	}

	if root == nil {
		if remove {
			return nil, nil
		}
		root = make(map[string]any)
	}
	node := root
	for _, seg := range rel[:len(rel)-1] {
		child, ok := node[seg].(map[string]any)
		if !ok {
			if remove {
				return root, nil
			}
			child = make(map[string]any)
			node[seg] = child
		}
		node = child
	}

	last := rel[len(rel)-1]
	if remove {
		delete(node, last)
	} else {
		node[last] = value
	}
	return root, nil
}

// prune drops empty objects, depth first.
func prune(m map[string]any) {
	for k, v := range m {
		child, ok := v.(map[string]any)
		if !ok {
			continue
		}
		prune(child)
		if len(child) == 0 {
			delete(m, k)
		}
	}
}

// normalize round-trips v through JSON so stored values only ever hold
// maps, slices, strings, bools and json.Number.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeObject(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("%w: document is not an object", ErrInvalidValue)
	}
	return out, nil
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}
