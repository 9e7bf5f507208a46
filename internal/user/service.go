package user

import (
	"context"
	"errors"
	"time"

	"github.com/cartshare/cartshare/internal/api/models"
)

// Validation limits for profile fields.
const (
	MaxUserNameLength    = 40
	MaxDisplayNameLength = 80
)

// Service provides user profile operations.
type Service struct {
	repo Repository
}

// NewService creates a new user service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetMe retrieves the user's profile.
func (s *Service) GetMe(ctx context.Context, userID string) (*models.Me, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.toAPIMe(user), nil
}

// UpdateMe updates the user's profile.
func (s *Service) UpdateMe(ctx context.Context, userID string, input *models.MeInput) (*models.Me, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Apply updates
	if input.UserName != nil {
		user.UserName = *input.UserName
	}
	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}
	if input.Birthdate != nil {
		birthdate := input.Birthdate.Time()
		user.Birthdate = &birthdate
	}
	if input.NotificationsEnabled != nil {
		user.NotificationsEnabled = *input.NotificationsEnabled
	}
	user.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return s.toAPIMe(user), nil
}

// NotificationsEnabled reports whether the user has push notifications on.
// Unknown users count as disabled.
func (s *Service) NotificationsEnabled(ctx context.Context, userID string) (bool, error) {
	user, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.NotificationsEnabled, nil
}

// EnsureUser creates the profile record for a user if it does not exist.
// The auth service calls it for every user it mints so each authenticated
// user has a profile. Existing profiles are left untouched.
func (s *Service) EnsureUser(ctx context.Context, userID, email string) error {
	_, err := s.repo.Get(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	return s.repo.Create(ctx, DefaultUser(userID, email))
}

// DeleteUser deletes a user and all associated data.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	return s.repo.Delete(ctx, userID)
}

// toAPIMe converts a domain User to an API Me.
func (s *Service) toAPIMe(u *User) *models.Me {
	me := &models.Me{
		UserID:               u.ID,
		Email:                u.Email,
		UserName:             u.UserName,
		DisplayName:          u.DisplayName,
		NotificationsEnabled: u.NotificationsEnabled,
		CreatedAt:            models.Timestamp(u.CreatedAt),
	}
	if u.Birthdate != nil {
		birthdate := models.Timestamp(*u.Birthdate)
		me.Birthdate = &birthdate
	}
	return me
}
