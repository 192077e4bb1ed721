package models

import "github.com/mmynk/rece/internal/money"

// Item represents a single line on a receipt.
type Item struct {
	// ID is the unique identifier for the item (TypeID, prefix "item").
	ID string

	// Name is the description shown on the receipt (e.g., "Pizza").
	Name string

	// Cost is the price of the whole line as entered, covering all
	// Quantity units. It is counted once in full in the receipt subtotal
	// no matter how its units are claimed.
	Cost money.Amount

	// Quantity is the number of units people can claim. It is a soft
	// target: claims may exceed it and the allocation still divides by the
	// claimed total.
	Quantity int
}

// Person represents one participant on a receipt.
type Person struct {
	// ID is the unique identifier for the person (TypeID, prefix "person").
	ID string

	// Name is the display name.
	Name string

	// Paid is a manually toggled settlement flag. It never affects the
	// allocation.
	Paid bool
}
