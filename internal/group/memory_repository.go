package group

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu     sync.RWMutex
	groups map[string]*Group
}

// NewInMemoryRepository creates a new in-memory group repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		groups: make(map[string]*Group),
	}
}

// Get retrieves a group by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.groups[id]
	if !ok {
		return nil, ErrGroupNotFound
	}

	return copyGroup(g), nil
}

// FindByInviteCode retrieves groups matching the given invite code.
func (r *InMemoryRepository) FindByInviteCode(_ context.Context, code string) ([]*Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*Group
	for _, g := range r.groups {
		if g.InviteCode == code {
			matches = append(matches, copyGroup(g))
		}
	}

	sortByCreatedAt(matches)
	return matches, nil
}

// ListByMember retrieves all groups containing userID in their member set.
func (r *InMemoryRepository) ListByMember(_ context.Context, userID string) ([]*Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*Group
	for _, g := range r.groups {
		if g.HasMember(userID) {
			matches = append(matches, copyGroup(g))
		}
	}

	sortByCreatedAt(matches)
	return matches, nil
}

// Create creates a new group.
func (r *InMemoryRepository) Create(_ context.Context, g *Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.groups[g.ID] = copyGroup(g)
	return nil
}

// AddMember adds userID to the member set, idempotently.
func (r *InMemoryRepository) AddMember(_ context.Context, groupID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[groupID]
	if !ok {
		return ErrGroupNotFound
	}

	if !g.HasMember(userID) {
		g.Members = append(g.Members, userID)
	}
	return nil
}

// RemoveMember removes userID from the member set.
func (r *InMemoryRepository) RemoveMember(_ context.Context, groupID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[groupID]
	if !ok {
		return ErrGroupNotFound
	}

	members := g.Members[:0]
	for _, m := range g.Members {
		if m != userID {
			members = append(members, m)
		}
	}
	g.Members = members
	return nil
}

// Delete deletes a group.
func (r *InMemoryRepository) Delete(_ context.Context, groupID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.groups[groupID]; !ok {
		return ErrGroupNotFound
	}

	delete(r.groups, groupID)
	return nil
}

func copyGroup(g *Group) *Group {
	cpy := *g
	cpy.Members = append([]string(nil), g.Members...)
	return &cpy
}

func sortByCreatedAt(groups []*Group) {
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].CreatedAt.Before(groups[j].CreatedAt)
	})
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
