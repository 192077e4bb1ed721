package models

import (
	"time"

	"github.com/mmynk/rece/internal/money"
)

// ReceiptSummary is the list-view projection of a receipt.
type ReceiptSummary struct {
	ID    string
	Title string
	Date  time.Time

	// Total is the cached total stored on the document. It may lag the
	// computed total briefly, which is acceptable for a list view only.
	Total money.Amount

	Locked bool
}
