package calculator

import (
	"net/url"
	"sort"
	"strings"

	"github.com/mmynk/rece/internal/models"
	"github.com/mmynk/rece/internal/money"
)

// DefaultPaymentNote is attached to payment requests when no note is configured.
const DefaultPaymentNote = "Split by Rece"

// Outstanding is what one unpaid person still owes.
type Outstanding struct {
	PersonID string
	Name     string
	Amount   money.Amount

	// PaymentLink requests Amount through Venmo. Empty when nothing is owed.
	PaymentLink string
}

// Settlement summarizes who has paid their share of a receipt.
type Settlement struct {
	Collected   money.Amount // Sum of totals of people marked paid
	Outstanding money.Amount // Sum of totals of people not marked paid
	Unpaid      []Outstanding
}

// Settle computes the settlement summary from an allocation.
//
// Algorithm:
// - A paid person's total counts as collected
// - An unpaid person's total counts as outstanding and gets a payment request
// - Unpaid people are ordered by name, then id
func Settle(people []models.Person, alloc *Allocation, note string) Settlement {
	var s Settlement
	for _, p := range people {
		total := alloc.Person(p.ID).Total
		if p.Paid {
			s.Collected = s.Collected.Add(total)
			continue
		}
		s.Outstanding = s.Outstanding.Add(total)

		owed := Outstanding{PersonID: p.ID, Name: p.Name, Amount: total}
		if total.IsPositive() {
			owed.PaymentLink = PaymentLink(total, note)
		}
		s.Unpaid = append(s.Unpaid, owed)
	}

	sort.Slice(s.Unpaid, func(i, j int) bool {
		if s.Unpaid[i].Name != s.Unpaid[j].Name {
			return s.Unpaid[i].Name < s.Unpaid[j].Name
		}
		return s.Unpaid[i].PersonID < s.Unpaid[j].PersonID
	})
	return s
}

// ReceiptNote is the payment note for one receipt: "<title> - <note>".
// The title is left out when blank.
func ReceiptNote(title, note string) string {
	if note == "" {
		note = DefaultPaymentNote
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return note
	}
	return title + " - " + note
}

// PaymentLink builds a Venmo deep link charging amount with the given note.
// The recipient is left empty for the payer to pick in the app.
func PaymentLink(amount money.Amount, note string) string {
	if note == "" {
		note = DefaultPaymentNote
	}
	q := url.Values{}
	q.Set("txn", "charge")
	q.Set("recipients", "")
	q.Set("amount", amount.String())
	q.Set("note", note)
	return "venmo://paycharge?" + q.Encode()
}
