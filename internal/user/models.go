// Package user provides user profile management.
//
// Profile data is deliberately minimal: a handle, a display name, an
// optional birthdate, and a push opt-in flag. Identity (provider subject,
// token issuance) lives in the auth package; this package owns everything
// the user can edit about themselves.
package user

import "time"

// User represents a user's editable profile.
type User struct {
	// ID is the unique user identifier (format: usr_XXXX).
	ID string

	// Email comes from the identity provider and is read-only here.
	Email string

	// UserName is the user's short handle shown to group members.
	UserName string

	// DisplayName is the user's full display name.
	DisplayName string

	// Birthdate is optional.
	Birthdate *time.Time

	// NotificationsEnabled gates purchase push notifications for this user.
	NotificationsEnabled bool

	// CreatedAt is when the user was created.
	CreatedAt time.Time

	// UpdatedAt is when the user was last updated.
	UpdatedAt time.Time
}

// DefaultUser returns a new user with default settings. Notifications are
// on by default; the client surfaces the opt-out.
func DefaultUser(id, email string) *User {
	now := time.Now()
	return &User{
		ID:                   id,
		Email:                email,
		NotificationsEnabled: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}
