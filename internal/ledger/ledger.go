// Package ledger records who claims how many units of which receipt item.
//
// A Ledger is a single relation of (item, person, quantity) triples. The
// per-item and per-person indexes are derived from that relation inside the
// same call that changes it, so the two directions can never disagree.
// A Ledger is not safe for concurrent use; each receipt snapshot owns its own.
package ledger

import (
	"sort"
)

// MaxQuantity is the largest claim one person may hold on one item, which
// keeps per-item totals far from overflowing.
const MaxQuantity = 1_000_000

// Share is one claim: Person holds Quantity units of Item.
type Share struct {
	ItemID   string
	PersonID string
	Quantity int
}

type key struct {
	item   string
	person string
}

// Ledger is the share relation with its two indexes.
type Ledger struct {
	entries  map[key]int
	byItem   map[string]map[string]struct{}
	byPerson map[string]map[string]struct{}
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		entries:  make(map[key]int),
		byItem:   make(map[string]map[string]struct{}),
		byPerson: make(map[string]map[string]struct{}),
	}
}

// Set records that personID claims quantity units of itemID. Quantities
// are clamped to [0, MaxQuantity] and a zero claim removes the entry.
// It reports whether the ledger changed.
func (l *Ledger) Set(personID, itemID string, quantity int) bool {
	quantity = min(max(quantity, 0), MaxQuantity)
	k := key{item: itemID, person: personID}

	current, exists := l.entries[k]
	if quantity == 0 {
		if !exists {
			return false
		}
		l.delete(k)
		return true
	}
	if exists && current == quantity {
		return false
	}

	l.entries[k] = quantity
	index(l.byItem, itemID, personID)
	index(l.byPerson, personID, itemID)
	return true
}

// Share returns how many units of itemID personID claims, 0 when absent.
func (l *Ledger) Share(personID, itemID string) int {
	return l.entries[key{item: itemID, person: personID}]
}

// TotalForItem sums every claim on itemID.
func (l *Ledger) TotalForItem(itemID string) int {
	total := 0
	for personID := range l.byItem[itemID] {
		total += l.entries[key{item: itemID, person: personID}]
	}
	return total
}

// PeopleForItem returns the claims on itemID ordered by person id.
func (l *Ledger) PeopleForItem(itemID string) []Share {
	shares := make([]Share, 0, len(l.byItem[itemID]))
	for personID := range l.byItem[itemID] {
		shares = append(shares, Share{ItemID: itemID, PersonID: personID, Quantity: l.entries[key{item: itemID, person: personID}]})
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].PersonID < shares[j].PersonID })
	return shares
}

// ItemsForPerson returns personID's claims ordered by item id.
func (l *Ledger) ItemsForPerson(personID string) []Share {
	shares := make([]Share, 0, len(l.byPerson[personID]))
	for itemID := range l.byPerson[personID] {
		shares = append(shares, Share{ItemID: itemID, PersonID: personID, Quantity: l.entries[key{item: itemID, person: personID}]})
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].ItemID < shares[j].ItemID })
	return shares
}

// RemoveItem drops every claim on itemID and returns what was removed.
func (l *Ledger) RemoveItem(itemID string) []Share {
	removed := l.PeopleForItem(itemID)
	for _, s := range removed {
		l.delete(key{item: s.ItemID, person: s.PersonID})
	}
	return removed
}

// RemovePerson drops every claim held by personID and returns what was removed.
func (l *Ledger) RemovePerson(personID string) []Share {
	removed := l.ItemsForPerson(personID)
	for _, s := range removed {
		l.delete(key{item: s.ItemID, person: s.PersonID})
	}
	return removed
}

// Entries returns all claims ordered by item id, then person id.
func (l *Ledger) Entries() []Share {
	shares := make([]Share, 0, len(l.entries))
	for k, q := range l.entries {
		shares = append(shares, Share{ItemID: k.item, PersonID: k.person, Quantity: q})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].ItemID != shares[j].ItemID {
			return shares[i].ItemID < shares[j].ItemID
		}
		return shares[i].PersonID < shares[j].PersonID
	})
	return shares
}

// Len is the number of non-zero claims.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Clone returns an independent copy.
func (l *Ledger) Clone() *Ledger {
	c := New()
	for k, q := range l.entries {
		c.Set(k.person, k.item, q)
	}
	return c
}

// Equal reports whether both ledgers hold the same claims.
func (l *Ledger) Equal(other *Ledger) bool {
	if len(l.entries) != len(other.entries) {
		return false
	}
	for k, q := range l.entries {
		if other.entries[k] != q {
			return false
		}
	}
	return true
}

// FromMirrored rebuilds a ledger from the legacy layout that kept the same
// claims twice, once keyed person→item and once item→person. The two maps
// were written one after the other, so they may disagree for a moment: a
// side that is missing counts as zero, and when both sides are present the
// person→item value wins because it is always written first.
func FromMirrored(personToItem, itemToPerson map[string]map[string]int) *Ledger {
	l := New()
	for itemID, people := range itemToPerson {
		for personID, q := range people {
			l.Set(personID, itemID, q)
		}
	}
	for personID, items := range personToItem {
		for itemID, q := range items {
			l.Set(personID, itemID, q)
		}
	}
	return l
}

func (l *Ledger) delete(k key) {
	delete(l.entries, k)
	unindex(l.byItem, k.item, k.person)
	unindex(l.byPerson, k.person, k.item)
}

func index(idx map[string]map[string]struct{}, outer, inner string) {
	set, ok := idx[outer]
	if !ok {
		set = make(map[string]struct{})
		idx[outer] = set
	}
	set[inner] = struct{}{}
}

func unindex(idx map[string]map[string]struct{}, outer, inner string) {
	set, ok := idx[outer]
	if !ok {
		return
	}
	delete(set, inner)
	if len(set) == 0 {
		delete(idx, outer)
	}
}
