package calculator

import (
	"testing"

	"github.com/mmynk/rece/internal/ledger"
	"github.com/mmynk/rece/internal/models"
	"github.com/mmynk/rece/internal/money"
)

func TestSettle(t *testing.T) {
	people := []models.Person{
		{ID: "p1", Name: "Bob"},
		{ID: "p2", Name: "Alice", Paid: true},
		{ID: "p3", Name: "Carol"},
	}
	alloc := Allocate(Input{
		Items:  []models.Item{{ID: "pizza", Cost: money.MustParse("9.00"), Quantity: 3}},
		People: people,
		Shares: shares(
			ledger.Share{ItemID: "pizza", PersonID: "p1", Quantity: 1},
			ledger.Share{ItemID: "pizza", PersonID: "p2", Quantity: 2},
		),
	})

	s := Settle(people, alloc, "")

	wantAmount(t, "collected", s.Collected, "6.00")
	wantAmount(t, "outstanding", s.Outstanding, "3.00")
	if len(s.Unpaid) != 2 {
		t.Fatalf("unpaid = %d people, want 2", len(s.Unpaid))
	}
	if s.Unpaid[0].Name != "Bob" || s.Unpaid[1].Name != "Carol" {
		t.Errorf("unpaid order = %s, %s; want Bob, Carol", s.Unpaid[0].Name, s.Unpaid[1].Name)
	}
	if want := "venmo://paycharge?amount=3.00&note=Split+by+Rece&recipients=&txn=charge"; s.Unpaid[0].PaymentLink != want {
		t.Errorf("link = %q, want %q", s.Unpaid[0].PaymentLink, want)
	}
	if s.Unpaid[1].PaymentLink != "" {
		t.Errorf("Carol owes nothing but got link %q", s.Unpaid[1].PaymentLink)
	}
}

func TestPaymentLinkEscapesNote(t *testing.T) {
	got := PaymentLink(money.MustParse("12.5"), "Tacos & beer")
	want := "venmo://paycharge?amount=12.50&note=Tacos+%26+beer&recipients=&txn=charge"
	if got != want {
		t.Errorf("PaymentLink = %q, want %q", got, want)
	}
}

func TestReceiptNote(t *testing.T) {
	tests := []struct {
		title, note, want string
	}{
		{title: "Dinner", note: "Split by Rece", want: "Dinner - Split by Rece"},
		{title: "Dinner", note: "", want: "Dinner - Split by Rece"},
		{title: "  ", note: "Thanks!", want: "Thanks!"},
	}
	for _, tt := range tests {
		if got := ReceiptNote(tt.title, tt.note); got != tt.want {
			t.Errorf("ReceiptNote(%q, %q) = %q, want %q", tt.title, tt.note, got, tt.want)
		}
	}
}
