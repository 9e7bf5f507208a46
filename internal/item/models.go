// Package item provides domain logic for shopping list items.
package item

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrItemNotFound = errors.New("item not found")
)

// Item represents a shopping list item within a group.
type Item struct {
	ID           string
	GroupID      string
	Name         string
	Purchased    bool
	Order        int
	Location     *string
	URL          *string
	Quantity     *int
	Deadline     *time.Time
	Memo         *string
	RegisteredAt time.Time
	Registrant   string
	Buyer        *string
	PurchasedAt  *time.Time
}
