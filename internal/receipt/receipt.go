// Package receipt is the receipt aggregate: the only place receipt
// documents are changed. It holds the invariants (lock policy, cascading
// removal, input validation) and turns each accepted mutation into
// docstore ops that the caller applies as one atomic batch.
package receipt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/mmynk/rece/internal/calculator"
	"github.com/mmynk/rece/internal/docstore"
	"github.com/mmynk/rece/internal/ledger"
	"github.com/mmynk/rece/internal/models"
	"github.com/mmynk/rece/internal/money"
)

// Document field names.
const (
	fieldTitle   = "title"
	fieldDate    = "date"
	fieldTotal   = "total"
	fieldTaxCost = "taxCost"
	fieldTipCost = "tipCost"
	fieldLocked  = "locked"
	fieldItems   = "items"
	fieldPeople  = "people"
	fieldShares  = "shares"

	fieldName     = "name"
	fieldCost     = "cost"
	fieldQuantity = "quantity"
	fieldPaid     = "paid"

	// Mirrored share maps written by older clients.
	fieldLegacyPersonToItem = "personToItemQuantityMap"
	fieldLegacyItemToPerson = "itemToPersonQuantityMap"
)

// Receipt is one bill being split.
type Receipt struct {
	ID      string
	Title   string
	Date    time.Time
	Items   map[string]models.Item
	People  map[string]models.Person
	Shares  *ledger.Ledger
	TaxCost money.Amount
	TipCost money.Amount

	// Total is the cached total stored with the document for list views.
	// It may lag behind; use ComputedTotal for anything else.
	Total  money.Amount
	Locked bool

	legacy bool
	ops    []docstore.Op
}

// New returns an empty, unlocked receipt. An empty title gets a
// date-based default and a zero date means now.
func New(title string, date time.Time) *Receipt {
	if date.IsZero() {
		date = time.Now()
	}
	date = date.Truncate(time.Millisecond)
	if clean, err := NormalizeName(title); err == nil {
		title = clean
	} else {
		title = generateTitle(date)
	}
	return &Receipt{
		Title:  title,
		Date:   date,
		Items:  make(map[string]models.Item),
		People: make(map[string]models.Person),
		Shares: ledger.New(),
	}
}

// generateTitle creates an auto-generated title from the receipt date.
func generateTitle(date time.Time) string {
	return fmt.Sprintf("Receipt - %s", date.Format("Jan 2, 2006"))
}

// Decode builds the aggregate from a document snapshot. Decoding is
// tolerant: unreadable or out of range amounts become zero, item quantities below one
// become one and missing maps are empty.
func Decode(snap docstore.Snapshot) (*Receipt, error) {
	if !snap.Exists {
		return nil, fmt.Errorf("receipt %s: %w", snap.ID, docstore.ErrNotFound)
	}
	data := snap.Data

	r := &Receipt{
		ID:      snap.ID,
		Title:   stringOf(data[fieldTitle]),
		Items:   make(map[string]models.Item),
		People:  make(map[string]models.Person),
		TaxCost: amountOf(data[fieldTaxCost]),
		TipCost: amountOf(data[fieldTipCost]),
		Total:   amountOf(data[fieldTotal]),
		Locked:  boolOf(data[fieldLocked]),
	}
	if ms, ok := intOf(data[fieldDate]); ok && ms > 0 {
		r.Date = time.UnixMilli(int64(ms))
	}

	for id, raw := range objectOf(data[fieldItems]) {
		fields := objectOf(raw)
		quantity, ok := intOf(fields[fieldQuantity])
		if !ok || quantity < 1 {
			quantity = 1
		}
		r.Items[id] = models.Item{
			ID:       id,
			Name:     stringOf(fields[fieldName]),
			Cost:     amountOf(fields[fieldCost]),
			Quantity: quantity,
		}
	}
	for id, raw := range objectOf(data[fieldPeople]) {
		fields := objectOf(raw)
		r.People[id] = models.Person{
			ID:   id,
			Name: stringOf(fields[fieldName]),
			Paid: boolOf(fields[fieldPaid]),
		}
	}

	_, hasP2I := data[fieldLegacyPersonToItem]
	_, hasI2P := data[fieldLegacyItemToPerson]
	if hasP2I || hasI2P {
		r.legacy = true
		r.Shares = ledger.FromMirrored(
			quantityMatrix(data[fieldLegacyPersonToItem]),
			quantityMatrix(data[fieldLegacyItemToPerson]),
		)
		// Claims already written in the new layout are newer still.
		for itemID, people := range quantityMatrix(data[fieldShares]) {
			for personID, q := range people {
				r.Shares.Set(personID, itemID, q)
			}
		}
	} else {
		r.Shares = ledger.New()
		for itemID, people := range quantityMatrix(data[fieldShares]) {
			for personID, q := range people {
				r.Shares.Set(personID, itemID, q)
			}
		}
	}
	return r, nil
}

// Encode renders the full document.
func (r *Receipt) Encode() map[string]any {
	items := make(map[string]any, len(r.Items))
	for id, item := range r.Items {
		items[id] = encodeItem(item)
	}
	people := make(map[string]any, len(r.People))
	for id, p := range r.People {
		people[id] = encodePerson(p)
	}
	return map[string]any{
		fieldTitle:   r.Title,
		fieldDate:    r.Date.UnixMilli(),
		fieldTotal:   r.ComputedTotal(),
		fieldTaxCost: r.TaxCost,
		fieldTipCost: r.TipCost,
		fieldLocked:  r.Locked,
		fieldItems:   items,
		fieldPeople:  people,
		fieldShares:  encodeShares(r.Shares),
	}
}

// IsLegacy reports whether the document still uses mirrored share maps.
func (r *Receipt) IsLegacy() bool { return r.legacy }

// Subtotal is the sum of every item cost, claimed or not.
func (r *Receipt) Subtotal() money.Amount {
	total := money.Zero
	for _, item := range r.Items {
		total = total.Add(item.Cost)
	}
	return total
}

// ComputedTotal is Subtotal plus tax and tip.
func (r *Receipt) ComputedTotal() money.Amount {
	return r.Subtotal().Add(r.TaxCost).Add(r.TipCost)
}

// SortedItems returns the items ordered by id, which for generated ids is
// creation order.
func (r *Receipt) SortedItems() []models.Item {
	items := make([]models.Item, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// SortedPeople returns the people ordered by id.
func (r *Receipt) SortedPeople() []models.Person {
	people := make([]models.Person, 0, len(r.People))
	for _, p := range r.People {
		people = append(people, p)
	}
	sort.Slice(people, func(i, j int) bool { return people[i].ID < people[j].ID })
	return people
}

// Input is the allocation input for the current state.
func (r *Receipt) Input() calculator.Input {
	return calculator.Input{
		Items:  r.SortedItems(),
		People: r.SortedPeople(),
		Shares: r.Shares,
		Tax:    r.TaxCost,
		Tip:    r.TipCost,
	}
}

// Allocate runs the allocation engine on the current state.
func (r *Receipt) Allocate() *calculator.Allocation {
	return calculator.Allocate(r.Input())
}

// Summary is the list-view projection. It uses the cached total.
func (r *Receipt) Summary() models.ReceiptSummary {
	return models.ReceiptSummary{
		ID:     r.ID,
		Title:  r.Title,
		Date:   r.Date,
		Total:  r.Total,
		Locked: r.Locked,
	}
}

func encodeItem(item models.Item) map[string]any {
	return map[string]any{
		fieldName:     item.Name,
		fieldCost:     item.Cost,
		fieldQuantity: item.Quantity,
	}
}

func encodePerson(p models.Person) map[string]any {
	return map[string]any{
		fieldName: p.Name,
		fieldPaid: p.Paid,
	}
}

func encodeShares(l *ledger.Ledger) map[string]any {
	shares := make(map[string]any)
	for _, s := range l.Entries() {
		people, ok := shares[s.ItemID].(map[string]any)
		if !ok {
			people = make(map[string]any)
			shares[s.ItemID] = people
		}
		people[s.PersonID] = s.Quantity
	}
	return shares
}

func objectOf(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}

func boolOf(v any) bool {
	b, _ := v.(bool)
	return b
}

func amountOf(v any) money.Amount {
	var a money.Amount
	switch t := v.(type) {
	case json.Number:
		parsed, err := money.Parse(t.String())
		if err != nil {
			return money.Zero
		}
		a = parsed
	case string:
		parsed, err := money.Parse(t)
		if err != nil {
			return money.Zero
		}
		a = parsed
	case float64:
		a = money.FromFloat(t)
	case int:
		a = money.FromInt(int64(t))
	case int64:
		a = money.FromInt(t)
	default:
		return money.Zero
	}
	if !a.InRange() {
		return money.Zero
	}
	return a
}

// intOf reads a whole number. Legacy share cells are objects of the form
// {"quantity": n}.
func intOf(v any) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
		if f, err := t.Float64(); err == nil {
			return int(f), true
		}
	case float64:
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n, true
		}
	case map[string]any:
		return intOf(t[fieldQuantity])
	}
	return 0, false
}

func quantityMatrix(v any) map[string]map[string]int {
	out := make(map[string]map[string]int)
	for outer, raw := range objectOf(v) {
		row := make(map[string]int)
		for inner, cell := range objectOf(raw) {
			if q, ok := intOf(cell); ok {
				row[inner] = q
			}
		}
		out[outer] = row
	}
	return out
}
