package calculator

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/mitchellh/hashstructure/v2"
)

// Cache memoizes the latest allocation per receipt. An entry is reused only
// while the hash of its input tuple (items, people, ledger, tax, tip) is
// unchanged, so renaming a person or toggling paid never recomputes.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	hash       uint64
	allocation *Allocation
}

// fingerprint is the part of Input that affects the result. Names and paid
// flags are left out on purpose.
type fingerprint struct {
	Items  []itemKey
	People []string
	Shares []shareKey
	Tax    string
	Tip    string
}

type itemKey struct {
	ID       string
	Cost     string
	Quantity int
}

type shareKey struct {
	Item     string
	Person   string
	Quantity int
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Allocate returns the allocation for in, computing it only when the input
// for key changed since the last call. The second result reports a hit.
// Allocations handed out are shared and must be treated as read-only.
func (c *Cache) Allocate(key string, in Input) (*Allocation, bool) {
	hash, err := hashstructure.Hash(fingerprintOf(in), hashstructure.FormatV2, nil)
	if err != nil {
		slog.Warn("failed to hash allocation input", "key", key, "error", err)
		return Allocate(in), false
	}

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && entry.hash == hash {
		return entry.allocation, true
	}

	allocation := Allocate(in)
	c.mu.Lock()
	c.entries[key] = cacheEntry{hash: hash, allocation: allocation}
	c.mu.Unlock()
	return allocation, false
}

// Forget drops the entry for key.
func (c *Cache) Forget(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len is the number of cached receipts.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func fingerprintOf(in Input) fingerprint {
	fp := fingerprint{
		Items:  make([]itemKey, 0, len(in.Items)),
		People: make([]string, 0, len(in.People)),
		Tax:    in.Tax.String(),
		Tip:    in.Tip.String(),
	}
	for _, item := range sortedItems(in.Items) {
		fp.Items = append(fp.Items, itemKey{ID: item.ID, Cost: item.Cost.String(), Quantity: item.Quantity})
	}
	for _, p := range in.People {
		fp.People = append(fp.People, p.ID)
	}
	sort.Strings(fp.People)
	if in.Shares != nil {
		for _, s := range in.Shares.Entries() {
			fp.Shares = append(fp.Shares, shareKey{Item: s.ItemID, Person: s.PersonID, Quantity: s.Quantity})
		}
	}
	return fp
}
