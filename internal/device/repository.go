package device

import (
	"context"
	"time"
)

// Repository defines the interface for device persistence.
type Repository interface {
	// Get retrieves a device by user ID and device ID.
	Get(ctx context.Context, userID, deviceID string) (*Device, error)

	// ListByUser retrieves all devices for a user.
	ListByUser(ctx context.Context, userID string) ([]*Device, error)

	// Upsert registers a token against a device: a new record is created for
	// an unknown device ID, an existing record gets the token unioned into
	// its set. Returns the stored device and whether it was newly created.
	Upsert(ctx context.Context, deviceID, userID, token string, now time.Time) (*Device, bool, error)

	// Delete deletes a device.
	// Returns ErrDeviceNotFound if the device does not belong to the user.
	Delete(ctx context.Context, userID, deviceID string) error

	// DeleteByUser deletes all devices for a user.
	DeleteByUser(ctx context.Context, userID string) error

	// TokensByUsers retrieves every token registered by the given users.
	// Callers are expected to keep the ID list within the store's IN-list
	// ceiling; the service layer chunks larger sets.
	TokensByUsers(ctx context.Context, userIDs []string) ([]string, error)
}
