package group

import "context"

// Repository defines the interface for group persistence.
type Repository interface {
	// Get retrieves a group by ID.
	Get(ctx context.Context, id string) (*Group, error)

	// FindByInviteCode retrieves groups whose invite code equals code, in
	// store order. Invite codes are not guaranteed unique, so more than one
	// group may match.
	FindByInviteCode(ctx context.Context, code string) ([]*Group, error)

	// ListByMember retrieves all groups whose member set contains userID.
	ListByMember(ctx context.Context, userID string) ([]*Group, error)

	// Create creates a new group.
	Create(ctx context.Context, g *Group) error

	// AddMember adds userID to the group's member set. The operation is
	// idempotent: adding an existing member changes nothing and is not an
	// error.
	AddMember(ctx context.Context, groupID, userID string) error

	// RemoveMember removes userID from the group's member set.
	RemoveMember(ctx context.Context, groupID, userID string) error

	// Delete deletes a group and its items.
	Delete(ctx context.Context, groupID string) error
}
