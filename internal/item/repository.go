package item

import (
	"context"
	"time"
)

// Repository defines the interface for item persistence.
type Repository interface {
	// Get retrieves an item by group and ID.
	// Returns ErrItemNotFound if the item does not exist in the group.
	Get(ctx context.Context, groupID, itemID string) (*Item, error)

	// ListByGroup retrieves all items in a group, sorted by their order key.
	ListByGroup(ctx context.Context, groupID string) ([]*Item, error)

	// MaxOrder returns the highest order key in the group, or 0 when the
	// group has no items.
	MaxOrder(ctx context.Context, groupID string) (int, error)

	// Create creates a new item.
	Create(ctx context.Context, item *Item) error

	// SetPurchased writes the purchased flag together with buyer and
	// purchase time, returning the previous flag value.
	// Returns ErrItemNotFound if the item does not exist in the group.
	SetPurchased(ctx context.Context, groupID, itemID string, purchased bool, buyer *string, purchasedAt *time.Time) (bool, error)

	// Delete deletes an item.
	// Returns ErrItemNotFound if the item does not exist in the group.
	Delete(ctx context.Context, groupID, itemID string) error

	// Reorder rewrites the order key of every listed item to its position
	// in the sequence, atomically. No item is updated unless all are.
	Reorder(ctx context.Context, groupID string, itemIDs []string) error
}
