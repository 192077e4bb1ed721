package receipt

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/rece/internal/docstore"
	"github.com/mmynk/rece/internal/ledger"
	"github.com/mmynk/rece/internal/models"
	"github.com/mmynk/rece/internal/money"
)

// Outcome reports what became of a mutation.
type Outcome string

const (
	// Applied means the mutation was accepted; it may still produce no ops
	// when nothing changed.
	Applied Outcome = "applied"

	// Disabled means the receipt is locked against this kind of change.
	Disabled Outcome = "disabled"

	// Rejected means the input was invalid. Nothing changed.
	Rejected Outcome = "rejected"

	// Unconfirmed means a destructive change was asked for without
	// confirmation. Nothing changed.
	Unconfirmed Outcome = "unconfirmed"
)

// Action is the kind of change a mutation makes, for the lock policy.
type Action int

const (
	ActionContents   Action = iota // title, date, items, people, charges
	ActionShares                   // who claims what
	ActionSettlement               // paid flags
	ActionLock                     // locking and unlocking
)

// MaxSplitParts caps how many items SplitItem may produce.
const MaxSplitParts = 100

// Charge selects one of the receipt-wide charges.
type Charge string

const (
	ChargeTax Charge = "tax"
	ChargeTip Charge = "tip"
)

var (
	ErrUnknownItem    = errors.New("unknown item")
	ErrUnknownPerson  = errors.New("unknown person")
	ErrUnknownCharge  = errors.New("unknown charge")
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrInvalidDate    = errors.New("date must be set")
)

// Allows reports whether the lock state permits action. A locked receipt
// freezes its contents, charges and shares; people can still be marked
// paid and the receipt can always be unlocked.
func (r *Receipt) Allows(action Action) bool {
	if !r.Locked {
		return true
	}
	return action == ActionSettlement || action == ActionLock
}

// Changes drains the ops recorded by mutations since the last call. When
// anything changed it also migrates a legacy document to the single share
// layout and republishes the cached total if it drifted.
func (r *Receipt) Changes() []docstore.Op {
	if len(r.ops) == 0 {
		return nil
	}
	var ops []docstore.Op
	if r.legacy {
		ops = append(ops,
			docstore.Remove(r.path(fieldLegacyPersonToItem)),
			docstore.Remove(r.path(fieldLegacyItemToPerson)),
			docstore.Set(r.path(fieldShares), encodeShares(r.Shares)),
		)
		r.legacy = false
	}
	ops = append(ops, r.ops...)
	r.ops = nil
	if op, ok := r.SyncTotal(); ok {
		ops = append(ops, op)
	}
	return ops
}

// SyncTotal returns the op that republishes the cached total when it
// differs from the computed one.
func (r *Receipt) SyncTotal() (docstore.Op, bool) {
	computed := r.ComputedTotal()
	if r.Total.Equal(computed) {
		return docstore.Op{}, false
	}
	r.Total = computed
	return docstore.Set(r.path(fieldTotal), computed), true
}

func (r *Receipt) path(segments ...string) docstore.Path {
	return docstore.P(r.ID).Child(segments...)
}

func (r *Receipt) record(ops ...docstore.Op) {
	r.ops = append(r.ops, ops...)
}

func rejected(err error) (Outcome, error) {
	return Rejected, err
}

// SetTitle renames the receipt.
func (r *Receipt) SetTitle(title string) (Outcome, error) {
	if !r.Allows(ActionContents) {
		return Disabled, nil
	}
	clean, err := NormalizeName(title)
	if err != nil {
		return rejected(err)
	}
	if clean != r.Title {
		r.Title = clean
		r.record(docstore.Set(r.path(fieldTitle), clean))
	}
	return Applied, nil
}

// SetDate moves the receipt to date, kept at millisecond precision.
func (r *Receipt) SetDate(date time.Time) (Outcome, error) {
	if !r.Allows(ActionContents) {
		return Disabled, nil
	}
	if date.IsZero() {
		return rejected(ErrInvalidDate)
	}
	date = date.Truncate(time.Millisecond)
	if !date.Equal(r.Date) {
		r.Date = date
		r.record(docstore.Set(r.path(fieldDate), date.UnixMilli()))
	}
	return Applied, nil
}

// AddItem adds a line item and returns its generated id.
func (r *Receipt) AddItem(name string, cost money.Amount, quantity int) (string, Outcome, error) {
	if !r.Allows(ActionContents) {
		return "", Disabled, nil
	}
	item, err := newItem(NewID(PrefixItem), name, cost, quantity)
	if err != nil {
		return "", Rejected, err
	}
	r.putItem(item)
	return item.ID, Applied, nil
}

func newItem(id, name string, cost money.Amount, quantity int) (models.Item, error) {
	clean, err := NormalizeName(name)
	if err != nil {
		return models.Item{}, err
	}
	if cost.IsNegative() {
		return models.Item{}, fmt.Errorf("cost %s: %w", cost, ErrNegativeAmount)
	}
	if !cost.InRange() {
		return models.Item{}, fmt.Errorf("cost %s: %w", cost, money.ErrOutOfRange)
	}
	if quantity < 1 {
		return models.Item{}, fmt.Errorf("%w: item quantity must be at least 1, got %d", ErrInvalidQuantity, quantity)
	}
	return models.Item{ID: id, Name: clean, Cost: cost, Quantity: quantity}, nil
}

func (r *Receipt) putItem(item models.Item) {
	r.Items[item.ID] = item
	r.record(docstore.Set(r.path(fieldItems, item.ID), encodeItem(item)))
}

func (r *Receipt) item(itemID string) (models.Item, error) {
	item, ok := r.Items[itemID]
	if !ok {
		return models.Item{}, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	return item, nil
}

func (r *Receipt) person(personID string) (models.Person, error) {
	p, ok := r.People[personID]
	if !ok {
		return models.Person{}, fmt.Errorf("%w: %s", ErrUnknownPerson, personID)
	}
	return p, nil
}

// RenameItem changes an item's name.
func (r *Receipt) RenameItem(itemID, name string) (Outcome, error) {
	if !r.Allows(ActionContents) {
		return Disabled, nil
	}
	item, err := r.item(itemID)
	if err != nil {
		return rejected(err)
	}
	clean, err := NormalizeName(name)
	if err != nil {
		return rejected(err)
	}
	if clean != item.Name {
		item.Name = clean
		r.Items[itemID] = item
		r.record(docstore.Set(r.path(fieldItems, itemID, fieldName), clean))
	}
	return Applied, nil
}

// SetItemCost changes what an item costs in total.
func (r *Receipt) SetItemCost(itemID string, cost money.Amount) (Outcome, error) {
	if !r.Allows(ActionContents) {
		return Disabled, nil
	}
	item, err := r.item(itemID)
	if err != nil {
		return rejected(err)
	}
	if cost.IsNegative() {
		return rejected(fmt.Errorf("cost %s: %w", cost, ErrNegativeAmount))
	}
	if !cost.InRange() {
		return rejected(fmt.Errorf("cost %s: %w", cost, money.ErrOutOfRange))
	}
	if !cost.Equal(item.Cost) {
		item.Cost = cost
		r.Items[itemID] = item
		r.record(docstore.Set(r.path(fieldItems, itemID, fieldCost), cost))
	}
	return Applied, nil
}

// SetItemQuantity changes how many units an item has. Existing claims are
// kept even if they now exceed the quantity.
func (r *Receipt) SetItemQuantity(itemID string, quantity int) (Outcome, error) {
	if !r.Allows(ActionContents) {
		return Disabled, nil
	}
	item, err := r.item(itemID)
	if err != nil {
		return rejected(err)
	}
	if quantity < 1 {
		return rejected(fmt.Errorf("%w: item quantity must be at least 1, got %d", ErrInvalidQuantity, quantity))
	}
	if quantity != item.Quantity {
		item.Quantity = quantity
		r.Items[itemID] = item
		r.record(docstore.Set(r.path(fieldItems, itemID, fieldQuantity), quantity))
	}
	return Applied, nil
}

// RemoveItem deletes an item together with every claim on it.
func (r *Receipt) RemoveItem(itemID string, confirmed bool) (Outcome, error) {
	if !r.Allows(ActionContents) {
		return Disabled, nil
	}
	if !confirmed {
		return Unconfirmed, nil
	}
	if _, err := r.item(itemID); err != nil {
		return rejected(err)
	}
	r.dropItem(itemID)
	return Applied, nil
}

func (r *Receipt) dropItem(itemID string) {
	delete(r.Items, itemID)
	r.Shares.RemoveItem(itemID)
	r.record(
		docstore.Remove(r.path(fieldItems, itemID)),
		docstore.Remove(r.path(fieldShares, itemID)),
	)
}

// SplitItem replaces an item with n single-unit items of the same name
// whose costs add up to the original cost. Claims on the original are
// dropped. It returns the new item ids. n is at most MaxSplitParts, and a
// priced item cannot be split into more parts than it has cents.
func (r *Receipt) SplitItem(itemID string, n int) ([]string, Outcome, error) {
	if !r.Allows(ActionContents) {
		return nil, Disabled, nil
	}
	item, err := r.item(itemID)
	if err != nil {
		return nil, Rejected, err
	}
	if n < 1 || n > MaxSplitParts {
		return nil, Rejected, fmt.Errorf("%w: cannot split into %d parts, want 1 to %d", ErrInvalidQuantity, n, MaxSplitParts)
	}
	if item.Cost.IsPositive() && int64(n) > item.Cost.Cents() {
		return nil, Rejected, fmt.Errorf("%w: cannot split %s into %d parts", ErrInvalidQuantity, item.Cost, n)
	}

	weights := make([]decimal.Decimal, n)
	for i := range weights {
		weights[i] = decimal.NewFromInt(1)
	}
	costs := money.Apportion(item.Cost, weights)

	r.dropItem(itemID)
	ids := make([]string, n)
	for i, cost := range costs {
		part := models.Item{ID: NewID(PrefixItem), Name: item.Name, Cost: cost, Quantity: 1}
		r.putItem(part)
		ids[i] = part.ID
	}
	return ids, Applied, nil
}

// AddPerson adds a participant and returns the generated id.
func (r *Receipt) AddPerson(name string) (string, Outcome, error) {
	if !r.Allows(ActionContents) {
		return "", Disabled, nil
	}
	clean, err := NormalizeName(name)
	if err != nil {
		return "", Rejected, err
	}
	p := models.Person{ID: NewID(PrefixPerson), Name: clean}
	r.People[p.ID] = p
	r.record(docstore.Set(r.path(fieldPeople, p.ID), encodePerson(p)))
	return p.ID, Applied, nil
}

// RenamePerson changes a participant's name.
func (r *Receipt) RenamePerson(personID, name string) (Outcome, error) {
	if !r.Allows(ActionContents) {
		return Disabled, nil
	}
	p, err := r.person(personID)
	if err != nil {
		return rejected(err)
	}
	clean, err := NormalizeName(name)
	if err != nil {
		return rejected(err)
	}
	if clean != p.Name {
		p.Name = clean
		r.People[personID] = p
		r.record(docstore.Set(r.path(fieldPeople, personID, fieldName), clean))
	}
	return Applied, nil
}

// SetPaid marks whether a participant has settled up. Allowed while locked.
func (r *Receipt) SetPaid(personID string, paid bool) (Outcome, error) {
	if !r.Allows(ActionSettlement) {
		return Disabled, nil
	}
	p, err := r.person(personID)
	if err != nil {
		return rejected(err)
	}
	if paid != p.Paid {
		p.Paid = paid
		r.People[personID] = p
		r.record(docstore.Set(r.path(fieldPeople, personID, fieldPaid), paid))
	}
	return Applied, nil
}

// RemovePerson deletes a participant together with all of their claims.
func (r *Receipt) RemovePerson(personID string, confirmed bool) (Outcome, error) {
	if !r.Allows(ActionContents) {
		return Disabled, nil
	}
	if !confirmed {
		return Unconfirmed, nil
	}
	if _, err := r.person(personID); err != nil {
		return rejected(err)
	}
	delete(r.People, personID)
	r.record(docstore.Remove(r.path(fieldPeople, personID)))
	for _, s := range r.Shares.RemovePerson(personID) {
		r.record(docstore.Remove(r.path(fieldShares, s.ItemID, personID)))
	}
	return Applied, nil
}

// SetShare records that a person claims quantity units of an item.
// Negative quantities count as zero, which removes the claim. Claims
// beyond the item quantity are accepted up to ledger.MaxQuantity.
func (r *Receipt) SetShare(personID, itemID string, quantity int) (Outcome, error) {
	if !r.Allows(ActionShares) {
		return Disabled, nil
	}
	if _, err := r.person(personID); err != nil {
		return rejected(err)
	}
	if _, err := r.item(itemID); err != nil {
		return rejected(err)
	}
	if quantity > ledger.MaxQuantity {
		return rejected(fmt.Errorf("%w: claim of %d exceeds %d", ErrInvalidQuantity, quantity, ledger.MaxQuantity))
	}
	if r.Shares.Set(personID, itemID, quantity) {
		var value any
		if q := r.Shares.Share(personID, itemID); q > 0 {
			value = q
		}
		r.record(docstore.Set(r.path(fieldShares, itemID, personID), value))
	}
	return Applied, nil
}

// SetCharge sets the tax or tip amount.
func (r *Receipt) SetCharge(charge Charge, amount money.Amount) (Outcome, error) {
	if !r.Allows(ActionContents) {
		return Disabled, nil
	}
	field, err := chargeField(charge)
	if err != nil {
		return rejected(err)
	}
	if amount.IsNegative() {
		return rejected(fmt.Errorf("%s %s: %w", charge, amount, ErrNegativeAmount))
	}
	if !amount.InRange() {
		return rejected(fmt.Errorf("%s %s: %w", charge, amount, money.ErrOutOfRange))
	}

	current := &r.TaxCost
	if charge == ChargeTip {
		current = &r.TipCost
	}
	if !amount.Equal(*current) {
		*current = amount
		r.record(docstore.Set(r.path(field), amount))
	}
	return Applied, nil
}

// SetChargePercent sets the tax or tip to pct percent of the subtotal.
func (r *Receipt) SetChargePercent(charge Charge, pct decimal.Decimal) (Outcome, error) {
	if pct.IsNegative() {
		if !r.Allows(ActionContents) {
			return Disabled, nil
		}
		return rejected(fmt.Errorf("%s %s%%: %w", charge, pct, ErrNegativeAmount))
	}
	return r.SetCharge(charge, money.FromPercent(r.Subtotal(), pct))
}

// ChargePercent is the charge as a percentage of the subtotal, 0 while
// the subtotal is 0.
func (r *Receipt) ChargePercent(charge Charge) decimal.Decimal {
	subtotal := r.Subtotal()
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	amount := r.TaxCost
	if charge == ChargeTip {
		amount = r.TipCost
	}
	return amount.Percent(subtotal)
}

func chargeField(charge Charge) (string, error) {
	switch charge {
	case ChargeTax:
		return fieldTaxCost, nil
	case ChargeTip:
		return fieldTipCost, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCharge, charge)
	}
}

// SetLocked locks or unlocks the receipt. Always allowed.
func (r *Receipt) SetLocked(locked bool) (Outcome, error) {
	if !r.Allows(ActionLock) {
		return Disabled, nil
	}
	if locked != r.Locked {
		r.Locked = locked
		r.record(docstore.Set(r.path(fieldLocked), locked))
	}
	return Applied, nil
}
