// Package group provides shared shopping groups and the invite-code join flow.
package group

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrGroupNotFound = errors.New("group not found")
	ErrNotMember     = errors.New("user is not a member of this group")
)

// ErrCodeExhausted is returned when group creation cannot find an unused
// invite code within the retry budget.
var ErrCodeExhausted = errors.New("could not generate a unique invite code")

// Group represents a shared shopping group.
type Group struct {
	ID         string
	Name       string
	InviteCode string
	// Members holds the user IDs belonging to the group. It is a set:
	// repositories must never store the same ID twice. The creator is the
	// first member.
	Members   []string
	CreatedBy string
	CreatedAt time.Time
}

// HasMember reports whether userID is in the group's member set.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// JoinStatus describes the outcome of a join-by-code attempt.
type JoinStatus string

const (
	// JoinStatusJoined means the user was added to the member set.
	JoinStatusJoined JoinStatus = "JOINED"

	// JoinStatusAlreadyMember means the user was already in the member set
	// and nothing changed. It is an informational outcome, not an error, so
	// callers can show "already joined: <group name>".
	JoinStatusAlreadyMember JoinStatus = "ALREADY_MEMBER"
)

// JoinResult is the outcome of JoinByCode.
type JoinResult struct {
	Status JoinStatus
	Group  *Group
}
