package item

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*Item
}

// NewInMemoryRepository creates a new in-memory item repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		items: make(map[string]*Item),
	}
}

// Get retrieves an item by group and ID.
func (r *InMemoryRepository) Get(_ context.Context, groupID, itemID string) (*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.items[itemID]
	if !ok || it.GroupID != groupID {
		return nil, ErrItemNotFound
	}

	cpy := *it
	return &cpy, nil
}

// ListByGroup retrieves all items in a group, sorted by their order key.
func (r *InMemoryRepository) ListByGroup(_ context.Context, groupID string) ([]*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []*Item
	for _, it := range r.items {
		if it.GroupID == groupID {
			cpy := *it
			items = append(items, &cpy)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].RegisteredAt.Before(items[j].RegisteredAt)
	})

	return items, nil
}

// MaxOrder returns the highest order key in the group.
func (r *InMemoryRepository) MaxOrder(_ context.Context, groupID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	max := 0
	for _, it := range r.items {
		if it.GroupID == groupID && it.Order > max {
			max = it.Order
		}
	}
	return max, nil
}

// Create creates a new item.
func (r *InMemoryRepository) Create(_ context.Context, it *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *it
	r.items[it.ID] = &cpy
	return nil
}

// SetPurchased writes the purchased flag with buyer and purchase time,
// returning the previous flag value.
func (r *InMemoryRepository) SetPurchased(_ context.Context, groupID, itemID string, purchased bool, buyer *string, purchasedAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[itemID]
	if !ok || it.GroupID != groupID {
		return false, ErrItemNotFound
	}

	previous := it.Purchased
	it.Purchased = purchased
	it.Buyer = buyer
	it.PurchasedAt = purchasedAt
	return previous, nil
}

// Delete deletes an item.
func (r *InMemoryRepository) Delete(_ context.Context, groupID, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[itemID]
	if !ok || it.GroupID != groupID {
		return ErrItemNotFound
	}

	delete(r.items, itemID)
	return nil
}

// Reorder rewrites the order key of every listed item to its position in
// the sequence, applying nothing when any item is missing.
func (r *InMemoryRepository) Reorder(_ context.Context, groupID string, itemIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range itemIDs {
		it, ok := r.items[id]
		if !ok || it.GroupID != groupID {
			return ErrItemNotFound
		}
	}

	for i, id := range itemIDs {
		r.items[id].Order = i
	}
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
