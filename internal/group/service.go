package group

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cartshare/cartshare/internal/api/models"
	"github.com/cartshare/cartshare/internal/invite"
)

// Service errors.
var (
	ErrLastMember = errors.New("last member must delete the group instead of leaving")
)

// Validation constants.
const (
	MaxNameLength = 80

	// maxCodeAttempts bounds invite code generation when a freshly drawn
	// code collides with an existing group.
	maxCodeAttempts = 5
)

// Service provides group operations.
type Service struct {
	repo Repository
}

// NewService creates a new group service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List retrieves all groups the user is a member of.
func (s *Service) List(ctx context.Context, userID string) (*models.GroupList, error) {
	groups, err := s.repo.ListByMember(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]models.Group, 0, len(groups))
	for _, g := range groups {
		items = append(items, toAPIGroup(g))
	}

	return &models.GroupList{Items: items}, nil
}

// Get retrieves a group by ID. Only members may read a group.
func (s *Service) Get(ctx context.Context, userID, groupID string) (*models.Group, error) {
	g, err := s.repo.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if !g.HasMember(userID) {
		return nil, ErrNotMember
	}

	result := toAPIGroup(g)
	return &result, nil
}

// Create creates a new group with the creator as its sole member.
func (s *Service) Create(ctx context.Context, userID string, input *models.GroupCreateRequest) (*models.Group, error) {
	if fieldErrors := s.validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	code, err := s.freshInviteCode(ctx)
	if err != nil {
		return nil, err
	}

	g := &Group{
		ID:         "grp_" + uuid.New().String()[:22],
		Name:       input.Name,
		InviteCode: code,
		Members:    []string{userID},
		CreatedBy:  userID,
		CreatedAt:  time.Now(),
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return nil, err
	}

	result := toAPIGroup(g)
	return &result, nil
}

// JoinByCode adds the user to the group matching the invite code.
// The code is validated before the store is consulted. When several groups
// share a code the earliest created one wins.
func (s *Service) JoinByCode(ctx context.Context, userID, code string) (*JoinResult, error) {
	if err := invite.ValidateCode(code); err != nil {
		return nil, err
	}

	groups, err := s.repo.FindByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, ErrGroupNotFound
	}

	g := groups[0]
	if g.HasMember(userID) {
		return &JoinResult{Status: JoinStatusAlreadyMember, Group: g}, nil
	}

	if err := s.repo.AddMember(ctx, g.ID, userID); err != nil {
		return nil, err
	}
	g.Members = append(g.Members, userID)

	return &JoinResult{Status: JoinStatusJoined, Group: g}, nil
}

// Leave removes the user from the group's member set.
func (s *Service) Leave(ctx context.Context, userID, groupID string) error {
	g, err := s.repo.Get(ctx, groupID)
	if err != nil {
		return err
	}

	if !g.HasMember(userID) {
		return ErrNotMember
	}
	if len(g.Members) == 1 {
		return ErrLastMember
	}

	return s.repo.RemoveMember(ctx, groupID, userID)
}

// Delete deletes a group and its items. Any member may delete.
func (s *Service) Delete(ctx context.Context, userID, groupID string) error {
	g, err := s.repo.Get(ctx, groupID)
	if err != nil {
		return err
	}

	if !g.HasMember(userID) {
		return ErrNotMember
	}

	return s.repo.Delete(ctx, groupID)
}

// IsMember reports whether the user belongs to the group.
func (s *Service) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	g, err := s.repo.Get(ctx, groupID)
	if err != nil {
		return false, err
	}
	return g.HasMember(userID), nil
}

// Members returns the member IDs of a group. Used by the notification
// fan-out, which runs without an acting user.
func (s *Service) Members(ctx context.Context, groupID string) ([]string, error) {
	g, err := s.repo.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return g.Members, nil
}

// freshInviteCode draws invite codes until one is unused.
func (s *Service) freshInviteCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := invite.NewCode()
		if err != nil {
			return "", err
		}

		existing, err := s.repo.FindByInviteCode(ctx, code)
		if err != nil {
			return "", err
		}
		if len(existing) == 0 {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}

// validateCreateInput validates the create group input.
func (s *Service) validateCreateInput(input *models.GroupCreateRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Name == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "is required"})
	} else if len(input.Name) > MaxNameLength {
		errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 80 characters"})
	}

	return errs
}

// toAPIGroup converts a domain Group to an API Group.
func toAPIGroup(g *Group) models.Group {
	return models.Group{
		ID:         g.ID,
		Name:       g.Name,
		InviteCode: g.InviteCode,
		Members:    g.Members,
		CreatedBy:  g.CreatedBy,
		CreatedAt:  models.Timestamp(g.CreatedAt),
	}
}

// API converts the join result to its API representation.
func (r *JoinResult) API() models.GroupJoinResponse {
	return models.GroupJoinResponse{
		Status: models.JoinStatus(r.Status),
		Group:  toAPIGroup(r.Group),
	}
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
