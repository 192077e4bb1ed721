package api

// Mutation outcomes.
const (
	OutcomeApplied     = "applied"
	OutcomeDisabled    = "disabled"
	OutcomeRejected    = "rejected"
	OutcomeUnconfirmed = "unconfirmed"
)

// Charges accepted by SetChargeRequest.
const (
	ChargeTax = "tax"
	ChargeTip = "tip"
)

type CreateReceiptRequest struct {
	Title string `json:"title,omitempty"`
	// Date is unix milliseconds; zero means now.
	Date int64 `json:"date,omitempty"`
}

type ListReceiptsRequest struct{}

type ListReceiptsResponse struct {
	Receipts []ReceiptSummary `json:"receipts"`
}

// ReceiptSummary is a list entry. Total is the stored total and may lag
// behind the receipt's contents.
type ReceiptSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Date   int64  `json:"date"`
	Total  string `json:"total"`
	Locked bool   `json:"locked"`
}

type GetReceiptRequest struct {
	ID string `json:"id"`
}

type GetReceiptResponse struct {
	Receipt *ReceiptView `json:"receipt"`
}

type WatchReceiptRequest struct {
	ID string `json:"id"`
}

// WatchReceiptResponse is one update on a watch stream. The stream ends
// after a response with Deleted set.
type WatchReceiptResponse struct {
	Receipt *ReceiptView `json:"receipt,omitempty"`
	Deleted bool         `json:"deleted,omitempty"`
}

type DeleteReceiptRequest struct {
	ID        string `json:"id"`
	Confirmed bool   `json:"confirmed"`
}

// UpdateReceiptRequest changes any of the set fields.
type UpdateReceiptRequest struct {
	ID     string  `json:"id"`
	Title  *string `json:"title,omitempty"`
	Date   *int64  `json:"date,omitempty"`
	Locked *bool   `json:"locked,omitempty"`
}

type AddItemRequest struct {
	ReceiptID string `json:"receiptId"`
	Name      string `json:"name"`
	Cost      string `json:"cost"`
	// Quantity defaults to "1" when empty.
	Quantity string `json:"quantity,omitempty"`
}

type UpdateItemRequest struct {
	ReceiptID string  `json:"receiptId"`
	ItemID    string  `json:"itemId"`
	Name      *string `json:"name,omitempty"`
	Cost      *string `json:"cost,omitempty"`
	Quantity  *string `json:"quantity,omitempty"`
}

type RemoveItemRequest struct {
	ReceiptID string `json:"receiptId"`
	ItemID    string `json:"itemId"`
	Confirmed bool   `json:"confirmed"`
}

type SplitItemRequest struct {
	ReceiptID string `json:"receiptId"`
	ItemID    string `json:"itemId"`
	Parts     int    `json:"parts"`
}

type AddPersonRequest struct {
	ReceiptID string `json:"receiptId"`
	Name      string `json:"name"`
}

type UpdatePersonRequest struct {
	ReceiptID string  `json:"receiptId"`
	PersonID  string  `json:"personId"`
	Name      *string `json:"name,omitempty"`
}

type SetPaidRequest struct {
	ReceiptID string `json:"receiptId"`
	PersonID  string `json:"personId"`
	Paid      bool   `json:"paid"`
}

type RemovePersonRequest struct {
	ReceiptID string `json:"receiptId"`
	PersonID  string `json:"personId"`
	Confirmed bool   `json:"confirmed"`
}

type SetShareRequest struct {
	ReceiptID string `json:"receiptId"`
	PersonID  string `json:"personId"`
	ItemID    string `json:"itemId"`
	Quantity  int    `json:"quantity"`
}

// SetChargeRequest sets tax or tip either as an amount or as a percentage
// of the subtotal. Exactly one of Amount and Percent must be set.
type SetChargeRequest struct {
	ReceiptID string  `json:"receiptId"`
	Charge    string  `json:"charge"`
	Amount    *string `json:"amount,omitempty"`
	Percent   *string `json:"percent,omitempty"`
}

// MutationResponse is returned by every mutation. Receipt is the state
// after the mutation, whatever the outcome.
type MutationResponse struct {
	Outcome string `json:"outcome"`
	// Error explains a rejected outcome.
	Error string `json:"error,omitempty"`
	// ID is the id of a created receipt, item or person.
	ID string `json:"id,omitempty"`
	// IDs are the items created by SplitItem.
	IDs     []string     `json:"ids,omitempty"`
	Receipt *ReceiptView `json:"receipt,omitempty"`
}

// ReceiptView is a receipt with its allocation worked out.
type ReceiptView struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Date   int64  `json:"date"`
	Locked bool   `json:"locked"`

	Items  []ItemView   `json:"items"`
	People []PersonView `json:"people"`

	Subtotal   string `json:"subtotal"`
	TaxCost    string `json:"taxCost"`
	TipCost    string `json:"tipCost"`
	TaxPercent string `json:"taxPercent"`
	TipPercent string `json:"tipPercent"`
	Total      string `json:"total"`

	// Unallocated is the part of the subtotal nobody has claimed.
	Unallocated string `json:"unallocated"`

	Settlement SettlementView `json:"settlement"`
}

type ItemView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Cost     string `json:"cost"`
	Quantity int    `json:"quantity"`
	Claimed  int    `json:"claimed"`
	Full     bool   `json:"full"`
	Over     bool   `json:"over"`
}

type PersonView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Initials string `json:"initials"`
	Paid     bool   `json:"paid"`

	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Tip      string `json:"tip"`
	Total    string `json:"total"`

	Items []PersonItemView `json:"items"`

	// PaymentLink requests Total from this person; empty once paid or
	// when nothing is owed.
	PaymentLink string `json:"paymentLink,omitempty"`
}

// PersonItemView is one person's part of an item.
type PersonItemView struct {
	ItemID      string `json:"itemId"`
	Name        string `json:"name"`
	Subtotal    string `json:"subtotal"`
	Shares      int    `json:"shares"`
	TotalShares int    `json:"totalShares"`
	// Label reads like "[2/3]" when the item is shared.
	Label string `json:"label,omitempty"`
}

type SettlementView struct {
	Collected   string `json:"collected"`
	Outstanding string `json:"outstanding"`
}
