// Package models defines the plain domain types shared by the receipt
// aggregate, the allocation engine and the RPC layer.
//
// # Models
//
//   - Item: a line on a receipt, with a cost for the whole line and a unit quantity
//   - Person: someone splitting the receipt, with a manual paid flag
//   - ReceiptSummary: the cached, list-view projection of a receipt
//
// Receipts themselves live in package receipt, which owns their invariants.
//
// # Design Principles
//
//  1. Ids are opaque strings (TypeIDs such as "item_01h..."); models never hold pointers to each other.
//  2. Money is always money.Amount, never float64.
//  3. These types carry no behavior that depends on lock state or persistence.
package models
