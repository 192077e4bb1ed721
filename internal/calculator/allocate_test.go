package calculator

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/rece/internal/ledger"
	"github.com/mmynk/rece/internal/models"
	"github.com/mmynk/rece/internal/money"
)

func shares(entries ...ledger.Share) *ledger.Ledger {
	l := ledger.New()
	for _, e := range entries {
		l.Set(e.PersonID, e.ItemID, e.Quantity)
	}
	return l
}

func people(ids ...string) []models.Person {
	out := make([]models.Person, len(ids))
	for i, id := range ids {
		out[i] = models.Person{ID: id, Name: id}
	}
	return out
}

func wantAmount(t *testing.T, what string, got money.Amount, want string) {
	t.Helper()
	if !got.Equal(money.MustParse(want)) {
		t.Errorf("%s = %s, want %s", what, got, want)
	}
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name         string
		in           Input
		validateFunc func(t *testing.T, a *Allocation)
	}{
		{
			name: "item cost follows claimed units",
			in: Input{
				Items:  []models.Item{{ID: "pizza", Cost: money.MustParse("9.00"), Quantity: 3}},
				People: people("alice", "bob"),
				Shares: shares(
					ledger.Share{ItemID: "pizza", PersonID: "alice", Quantity: 2},
					ledger.Share{ItemID: "pizza", PersonID: "bob", Quantity: 1},
				),
			},
			validateFunc: func(t *testing.T, a *Allocation) {
				wantAmount(t, "alice subtotal", a.Person("alice").Subtotal, "6.00")
				wantAmount(t, "bob subtotal", a.Person("bob").Subtotal, "3.00")
				if got := a.ItemFor("alice", "pizza").Label(); got != "[2/3]" {
					t.Errorf("alice label = %q, want [2/3]", got)
				}
				if got := a.ItemFor("bob", "pizza").Label(); got != "[1/3]" {
					t.Errorf("bob label = %q, want [1/3]", got)
				}
				if st := a.Items["pizza"]; !st.Full || st.Over {
					t.Errorf("pizza status = %+v, want full and not over", st)
				}
			},
		},
		{
			name: "single person pays everything with tax and tip",
			in: Input{
				Items: []models.Item{
					{ID: "burger", Cost: money.MustParse("30.00"), Quantity: 1},
					{ID: "fries", Cost: money.MustParse("20.00"), Quantity: 2},
				},
				People: people("alice"),
				Shares: shares(
					ledger.Share{ItemID: "burger", PersonID: "alice", Quantity: 1},
					ledger.Share{ItemID: "fries", PersonID: "alice", Quantity: 2},
				),
				Tax: money.MustParse("4.00"),
				Tip: money.MustParse("10.00"),
			},
			validateFunc: func(t *testing.T, a *Allocation) {
				alice := a.Person("alice")
				wantAmount(t, "subtotal", a.Subtotal, "50.00")
				wantAmount(t, "alice tax", alice.Tax, "4.00")
				wantAmount(t, "alice tip", alice.Tip, "10.00")
				wantAmount(t, "alice total", alice.Total, "64.00")
				wantAmount(t, "receipt total", a.Total, "64.00")
				if got := a.ItemFor("alice", "fries").Label(); got != "" {
					t.Errorf("label for sole claimant = %q, want empty", got)
				}
			},
		},
		{
			name: "unclaimed item counts in subtotal only",
			in: Input{
				Items: []models.Item{
					{ID: "pasta", Cost: money.MustParse("10.00"), Quantity: 1},
					{ID: "wine", Cost: money.MustParse("5.00"), Quantity: 1},
				},
				People: people("alice", "bob"),
				Shares: shares(ledger.Share{ItemID: "pasta", PersonID: "alice", Quantity: 1}),
				Tax:    money.MustParse("3.00"),
			},
			validateFunc: func(t *testing.T, a *Allocation) {
				wantAmount(t, "subtotal", a.Subtotal, "15.00")
				wantAmount(t, "allocated", a.Allocated, "10.00")
				wantAmount(t, "unallocated", a.Unallocated, "5.00")
				wantAmount(t, "alice subtotal", a.Person("alice").Subtotal, "10.00")
				wantAmount(t, "alice tax", a.Person("alice").Tax, "2.00")
				wantAmount(t, "bob total", a.Person("bob").Total, "0.00")
				if _, ok := a.Person("bob").Items["wine"]; ok {
					t.Error("bob should have no breakdown entry for an unclaimed item")
				}
				if st := a.Items["wine"]; st.Claimed != 0 || st.Full {
					t.Errorf("wine status = %+v, want unclaimed", st)
				}
			},
		},
		{
			name: "tax splits evenly on an even split",
			in: Input{
				Items:  []models.Item{{ID: "pizza", Cost: money.MustParse("10.00"), Quantity: 2}},
				People: people("alice", "bob"),
				Shares: shares(
					ledger.Share{ItemID: "pizza", PersonID: "alice", Quantity: 1},
					ledger.Share{ItemID: "pizza", PersonID: "bob", Quantity: 1},
				),
				Tax: money.MustParse("1.00"),
			},
			validateFunc: func(t *testing.T, a *Allocation) {
				wantAmount(t, "alice tax", a.Person("alice").Tax, "0.50")
				wantAmount(t, "bob tax", a.Person("bob").Tax, "0.50")
				wantAmount(t, "alice total", a.Person("alice").Total, "5.50")
			},
		},
		{
			name: "zero subtotal allocates no charges",
			in: Input{
				Items:  []models.Item{{ID: "water", Cost: money.Zero, Quantity: 1}},
				People: people("alice"),
				Shares: shares(ledger.Share{ItemID: "water", PersonID: "alice", Quantity: 1}),
				Tax:    money.MustParse("5.00"),
				Tip:    money.MustParse("2.00"),
			},
			validateFunc: func(t *testing.T, a *Allocation) {
				alice := a.Person("alice")
				wantAmount(t, "alice tax", alice.Tax, "0.00")
				wantAmount(t, "alice tip", alice.Tip, "0.00")
				wantAmount(t, "alice total", alice.Total, "0.00")
				wantAmount(t, "receipt total", a.Total, "7.00")
			},
		},
		{
			name: "three way split keeps every cent",
			in: Input{
				Items:  []models.Item{{ID: "cake", Cost: money.MustParse("10.00"), Quantity: 3}},
				People: people("alice", "bob", "carol"),
				Shares: shares(
					ledger.Share{ItemID: "cake", PersonID: "alice", Quantity: 1},
					ledger.Share{ItemID: "cake", PersonID: "bob", Quantity: 1},
					ledger.Share{ItemID: "cake", PersonID: "carol", Quantity: 1},
				),
			},
			validateFunc: func(t *testing.T, a *Allocation) {
				wantAmount(t, "alice subtotal", a.Person("alice").Subtotal, "3.34")
				wantAmount(t, "bob subtotal", a.Person("bob").Subtotal, "3.33")
				wantAmount(t, "carol subtotal", a.Person("carol").Subtotal, "3.33")
				wantAmount(t, "allocated", a.Allocated, "10.00")
			},
		},
		{
			name: "claims above quantity are tolerated",
			in: Input{
				Items:  []models.Item{{ID: "pizza", Cost: money.MustParse("9.00"), Quantity: 2}},
				People: people("alice", "bob"),
				Shares: shares(
					ledger.Share{ItemID: "pizza", PersonID: "alice", Quantity: 2},
					ledger.Share{ItemID: "pizza", PersonID: "bob", Quantity: 1},
				),
			},
			validateFunc: func(t *testing.T, a *Allocation) {
				wantAmount(t, "alice subtotal", a.Person("alice").Subtotal, "6.00")
				wantAmount(t, "bob subtotal", a.Person("bob").Subtotal, "3.00")
				if st := a.Items["pizza"]; !st.Over || st.Claimed != 3 {
					t.Errorf("pizza status = %+v, want over with 3 claimed", st)
				}
			},
		},
		{
			name: "claims by unknown people stay unallocated",
			in: Input{
				Items:  []models.Item{{ID: "pizza", Cost: money.MustParse("9.00"), Quantity: 3}},
				People: people("alice"),
				Shares: shares(
					ledger.Share{ItemID: "pizza", PersonID: "alice", Quantity: 1},
					ledger.Share{ItemID: "pizza", PersonID: "ghost", Quantity: 2},
				),
			},
			validateFunc: func(t *testing.T, a *Allocation) {
				wantAmount(t, "alice subtotal", a.Person("alice").Subtotal, "3.00")
				wantAmount(t, "unallocated", a.Unallocated, "6.00")
				if _, ok := a.People["ghost"]; ok {
					t.Error("unknown claimant must not appear in the result")
				}
			},
		},
		{
			name: "no ledger",
			in: Input{
				Items:  []models.Item{{ID: "pizza", Cost: money.MustParse("9.00"), Quantity: 1}},
				People: people("alice"),
			},
			validateFunc: func(t *testing.T, a *Allocation) {
				wantAmount(t, "subtotal", a.Subtotal, "9.00")
				wantAmount(t, "alice total", a.Person("alice").Total, "0.00")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Allocate(tt.in)
			if tt.validateFunc != nil {
				tt.validateFunc(t, a)
			}
		})
	}
}

func TestAllocateNeverExceedsSubtotal(t *testing.T) {
	items := []models.Item{
		{ID: "a", Cost: money.MustParse("7.99"), Quantity: 3},
		{ID: "b", Cost: money.MustParse("12.01"), Quantity: 1},
		{ID: "c", Cost: money.MustParse("0.05"), Quantity: 7},
	}
	l := shares(
		ledger.Share{ItemID: "a", PersonID: "p1", Quantity: 1},
		ledger.Share{ItemID: "a", PersonID: "p2", Quantity: 1},
		ledger.Share{ItemID: "a", PersonID: "p3", Quantity: 1},
		ledger.Share{ItemID: "c", PersonID: "p1", Quantity: 3},
		ledger.Share{ItemID: "c", PersonID: "p3", Quantity: 4},
	)
	a := Allocate(Input{
		Items:  items,
		People: people("p1", "p2", "p3"),
		Shares: l,
		Tax:    money.MustParse("1.73"),
		Tip:    money.MustParse("3.10"),
	})

	sum := money.Zero
	charges := money.Zero
	for _, p := range a.People {
		sum = sum.Add(p.Subtotal)
		charges = charges.Add(p.Tax).Add(p.Tip)
		if !p.Total.Equal(p.Subtotal.Add(p.Tax).Add(p.Tip)) {
			t.Errorf("%s total %s does not add up", p.PersonID, p.Total)
		}
	}
	if a.Subtotal.LessThan(sum) {
		t.Errorf("person subtotals %s exceed receipt subtotal %s", sum, a.Subtotal)
	}
	if !sum.Equal(money.MustParse("8.04")) {
		t.Errorf("allocated = %s, want 8.04", sum)
	}
	if a.Total.LessThan(sum.Add(charges)) {
		t.Errorf("person totals %s exceed receipt total %s", sum.Add(charges), a.Total)
	}
}

func TestAllocateHugeCostStillSumsToCost(t *testing.T) {
	cost := money.New(decimal.New(1, 17))
	a := Allocate(Input{
		Items:  []models.Item{{ID: "yacht", Cost: cost, Quantity: 2}},
		People: people("a", "b"),
		Shares: shares(
			ledger.Share{ItemID: "yacht", PersonID: "a", Quantity: 1},
			ledger.Share{ItemID: "yacht", PersonID: "b", Quantity: 1},
		),
	})

	half := money.New(decimal.New(5, 16))
	for _, id := range []string{"a", "b"} {
		if got := a.Person(id).Subtotal; !got.Equal(half) {
			t.Errorf("%s subtotal = %s, want %s", id, got, half)
		}
	}
	if !a.Allocated.Equal(cost) {
		t.Errorf("allocated = %s, want %s", a.Allocated, cost)
	}
}

func TestAllocateIgnoresInputOrder(t *testing.T) {
	items := []models.Item{
		{ID: "a", Cost: money.MustParse("10.00"), Quantity: 3},
		{ID: "b", Cost: money.MustParse("1.00"), Quantity: 3},
	}
	l := shares(
		ledger.Share{ItemID: "a", PersonID: "x", Quantity: 1},
		ledger.Share{ItemID: "a", PersonID: "y", Quantity: 1},
		ledger.Share{ItemID: "a", PersonID: "z", Quantity: 1},
		ledger.Share{ItemID: "b", PersonID: "x", Quantity: 1},
		ledger.Share{ItemID: "b", PersonID: "z", Quantity: 2},
	)
	forward := Allocate(Input{Items: items, People: people("x", "y", "z"), Shares: l, Tax: money.MustParse("0.97")})
	backward := Allocate(Input{
		Items:  []models.Item{items[1], items[0]},
		People: people("z", "y", "x"),
		Shares: l,
		Tax:    money.MustParse("0.97"),
	})

	for id, f := range forward.People {
		b := backward.Person(id)
		if !f.Total.Equal(b.Total) || !f.Tax.Equal(b.Tax) {
			t.Errorf("%s: forward %s/%s, backward %s/%s", id, f.Total, f.Tax, b.Total, b.Tax)
		}
	}
}

func TestAllocateDoesNotMutateInput(t *testing.T) {
	items := []models.Item{
		{ID: "b", Cost: money.MustParse("2.00"), Quantity: 1},
		{ID: "a", Cost: money.MustParse("1.00"), Quantity: 1},
	}
	l := shares(ledger.Share{ItemID: "a", PersonID: "x", Quantity: 1})
	before := l.Clone()

	Allocate(Input{Items: items, People: people("y", "x"), Shares: l})

	if items[0].ID != "b" {
		t.Error("items were reordered in place")
	}
	if !l.Equal(before) {
		t.Error("ledger was modified")
	}
}

func TestItemShareLabel(t *testing.T) {
	tests := []struct {
		share ItemShare
		want  string
	}{
		{ItemShare{Shares: 2, TotalShares: 3}, "[2/3]"},
		{ItemShare{Shares: 3, TotalShares: 3}, ""},
		{ItemShare{}, ""},
	}
	for _, tt := range tests {
		if got := tt.share.Label(); got != tt.want {
			t.Errorf("Label(%+v) = %q, want %q", tt.share, got, tt.want)
		}
	}
}
