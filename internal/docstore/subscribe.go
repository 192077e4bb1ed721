package docstore

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/mmynk/rece/internal/metrics"
)

type subscription struct {
	id     string
	docID  string
	ch     chan Snapshot // holds at most the newest undelivered snapshot
	done   chan struct{}
	once   sync.Once
	cancel func()
}

// offer queues snap, replacing an older snapshot that was not yet
// delivered. It never blocks; callers hold the store lock.
func (sub *subscription) offer(snap Snapshot) {
	for {
		select {
		case sub.ch <- snap:
			return
		default:
		}
		select {
		case stale := <-sub.ch:
			if stale.Version > snap.Version {
				snap = stale
			}
		default:
		}
	}
}

// Subscribe calls onSnapshot with the current state of document id and
// again after every committed change to it, until the returned cancel func
// is called or ctx is done. Calls happen in order on a goroutine owned by
// the subscription. A slow callback only ever sees the latest snapshot;
// intermediate versions may be skipped but versions never go backwards.
func (s *Store) Subscribe(ctx context.Context, id string, onSnapshot func(Snapshot)) (cancel func()) {
	sub := &subscription{
		id:    uuid.NewString(),
		docID: id,
		ch:    make(chan Snapshot, 1),
		done:  make(chan struct{}),
	}
	sub.cancel = func() {
		sub.once.Do(func() {
			s.mu.Lock()
			delete(s.subs[id], sub.id)
			if len(s.subs[id]) == 0 {
				delete(s.subs, id)
			}
			s.mu.Unlock()
			close(sub.done)
			metrics.Subscriptions.Dec()
			slog.Debug("subscription closed", "id", id, "subscription", sub.id)
		})
	}

	s.mu.Lock()
	if s.subs[id] == nil {
		s.subs[id] = make(map[string]*subscription)
	}
	s.subs[id][sub.id] = sub
	sub.offer(s.snapshotLocked(id))
	s.mu.Unlock()

	metrics.Subscriptions.Inc()
	slog.Debug("subscription opened", "id", id, "subscription", sub.id)

	go func() {
		var last uint64
		delivered := false
		for {
			select {
			case <-sub.done:
				return
			case <-ctx.Done():
				sub.cancel()
				return
			case snap := <-sub.ch:
				select {
				case <-sub.done:
					return
				default:
				}
				if delivered && snap.Version < last {
					continue
				}
				delivered, last = true, snap.Version
				onSnapshot(snap)
			}
		}
	}()

	return sub.cancel
}
