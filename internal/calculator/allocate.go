package calculator

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/mmynk/rece/internal/ledger"
	"github.com/mmynk/rece/internal/models"
	"github.com/mmynk/rece/internal/money"
)

// Shares is the read side of the share ledger the engine needs.
type Shares interface {
	TotalForItem(itemID string) int
	Share(personID, itemID string) int
	Entries() []ledger.Share
}

// Input is everything an allocation depends on.
type Input struct {
	Items  []models.Item
	People []models.Person
	Shares Shares
	Tax    money.Amount
	Tip    money.Amount
}

// ItemShare is one person's part of one item, e.g. 2 of 3 claimed units.
type ItemShare struct {
	Subtotal    money.Amount
	Shares      int
	TotalShares int
}

// Label renders the fractional ownership hint ("[2/3]"), or "" when the
// person holds every claimed unit.
func (s ItemShare) Label() string {
	if s.TotalShares <= s.Shares {
		return ""
	}
	return "[" + strconv.Itoa(s.Shares) + "/" + strconv.Itoa(s.TotalShares) + "]"
}

// PersonSplit is the calculated share of the receipt for one person.
type PersonSplit struct {
	PersonID string

	// Subtotal is the sum of this person's item shares.
	Subtotal money.Amount

	// Tax and Tip are proportional to Subtotal:
	// charge × subtotal / receipt subtotal.
	Tax money.Amount
	Tip money.Amount

	// Total = Subtotal + Tax + Tip.
	Total money.Amount

	// Items is keyed by item id and only holds items with a claim.
	Items map[string]ItemShare
}

// ItemStatus tells how far an item is claimed.
type ItemStatus struct {
	Claimed  int
	Quantity int

	// Full is set once claims reach the item quantity.
	Full bool

	// Over is set while claims exceed the item quantity.
	Over bool
}

// Allocation is the full result of one run of the engine.
type Allocation struct {
	// Subtotal is the sum of every item cost, claimed or not.
	Subtotal money.Amount
	Tax      money.Amount
	Tip      money.Amount

	// Total = Subtotal + Tax + Tip.
	Total money.Amount

	// Allocated is the sum of all person subtotals; Unallocated is the part
	// of Subtotal nobody has claimed yet.
	Allocated   money.Amount
	Unallocated money.Amount

	People map[string]*PersonSplit
	Items  map[string]ItemStatus
}

// Person returns the split for personID, all zeros for an unknown person.
func (a *Allocation) Person(personID string) PersonSplit {
	if split, ok := a.People[personID]; ok {
		return *split
	}
	return PersonSplit{PersonID: personID, Items: map[string]ItemShare{}}
}

// ItemFor returns personID's part of itemID, zero when there is none.
func (a *Allocation) ItemFor(personID, itemID string) ItemShare {
	return a.Person(personID).Items[itemID]
}

// Allocate apportions item costs, tax and tip across people.
//
// Algorithm:
//   - Each item's cost is divided among its claimants in proportion to the
//     units they claim, out of all claimed units (not the item quantity).
//     An unclaimed item contributes nothing to anyone.
//   - Item parts are apportioned by largest remainder, so claimant parts
//     always add up to the item cost.
//   - Tax and tip follow spend: person charge = charge × person subtotal /
//     receipt subtotal, with the charge pool for allocated spend split by
//     largest remainder. A zero subtotal allocates no charges.
//
// Allocate never mutates its input and gives the same result for the same
// input regardless of item or person order.
func Allocate(in Input) *Allocation {
	items := sortedItems(in.Items)
	people := sortedPeople(in.People)

	result := &Allocation{
		Tax:    in.Tax,
		Tip:    in.Tip,
		People: make(map[string]*PersonSplit, len(people)),
		Items:  make(map[string]ItemStatus, len(items)),
	}
	for _, p := range people {
		result.People[p.ID] = &PersonSplit{PersonID: p.ID, Items: make(map[string]ItemShare)}
	}

	for _, item := range items {
		result.Subtotal = result.Subtotal.Add(item.Cost)

		numShares := 0
		if in.Shares != nil {
			numShares = in.Shares.TotalForItem(item.ID)
		}
		result.Items[item.ID] = ItemStatus{
			Claimed:  numShares,
			Quantity: item.Quantity,
			Full:     numShares >= item.Quantity,
			Over:     numShares > item.Quantity,
		}
		if numShares <= 0 {
			continue
		}

		var claimants []*PersonSplit
		var weights []decimal.Decimal
		var quantities []int
		claimed := 0
		for _, p := range people {
			q := in.Shares.Share(p.ID, item.ID)
			if q <= 0 {
				continue
			}
			claimants = append(claimants, result.People[p.ID])
			weights = append(weights, decimal.NewFromInt(int64(q)))
			quantities = append(quantities, q)
			claimed += q
		}
		if len(claimants) == 0 {
			continue
		}

		// Claims held by ids that are not on the receipt still count in
		// numShares, so their part of the cost stays unallocated.
		pool := item.Cost
		if claimed != numShares {
			pool = item.Cost.MulRatio(decimal.NewFromInt(int64(claimed)), decimal.NewFromInt(int64(numShares)))
		}

		for i, part := range money.Apportion(pool, weights) {
			split := claimants[i]
			split.Items[item.ID] = ItemShare{
				Subtotal:    part,
				Shares:      quantities[i],
				TotalShares: numShares,
			}
			split.Subtotal = split.Subtotal.Add(part)
		}
	}

	subtotals := make([]decimal.Decimal, len(people))
	for i, p := range people {
		split := result.People[p.ID]
		subtotals[i] = split.Subtotal.Decimal()
		result.Allocated = result.Allocated.Add(split.Subtotal)
	}
	result.Unallocated = result.Subtotal.Sub(result.Allocated)

	taxes := chargeShares(in.Tax, result.Allocated, result.Subtotal, subtotals)
	tips := chargeShares(in.Tip, result.Allocated, result.Subtotal, subtotals)
	for i, p := range people {
		split := result.People[p.ID]
		split.Tax = taxes[i]
		split.Tip = tips[i]
		split.Total = split.Subtotal.Add(split.Tax).Add(split.Tip)
	}

	result.Total = result.Subtotal.Add(result.Tax).Add(result.Tip)
	return result
}

// chargeShares splits the part of charge that follows allocated spend.
func chargeShares(charge, allocated, subtotal money.Amount, weights []decimal.Decimal) []money.Amount {
	if !subtotal.IsPositive() {
		return make([]money.Amount, len(weights))
	}
	pool := charge.MulRatio(allocated.Decimal(), subtotal.Decimal())
	return money.Apportion(pool, weights)
}

func sortedItems(items []models.Item) []models.Item {
	out := make([]models.Item, len(items))
	copy(out, items)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedPeople(people []models.Person) []models.Person {
	out := make([]models.Person, len(people))
	copy(out, people)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
