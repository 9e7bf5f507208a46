package device

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	devices map[string]*Device
}

// NewInMemoryRepository creates a new in-memory device repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		devices: make(map[string]*Device),
	}
}

// Get retrieves a device by user ID and device ID.
func (r *InMemoryRepository) Get(_ context.Context, userID, deviceID string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[deviceID]
	if !ok || d.UserID != userID {
		return nil, ErrDeviceNotFound
	}

	return copyDevice(d), nil
}

// ListByUser retrieves all devices for a user.
func (r *InMemoryRepository) ListByUser(_ context.Context, userID string) ([]*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var devices []*Device
	for _, d := range r.devices {
		if d.UserID == userID {
			devices = append(devices, copyDevice(d))
		}
	}

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].LastUpdated.After(devices[j].LastUpdated)
	})

	return devices, nil
}

// Upsert registers a token against a device, creating the record when the
// device ID is new and unioning the token into the set otherwise.
func (r *InMemoryRepository) Upsert(_ context.Context, deviceID, userID, token string, now time.Time) (*Device, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[deviceID]
	if !ok {
		d = &Device{
			ID:          deviceID,
			UserID:      userID,
			Tokens:      []string{token},
			LastUpdated: now,
		}
		r.devices[deviceID] = d
		return copyDevice(d), true, nil
	}

	d.UserID = userID
	d.LastUpdated = now
	if !d.HasToken(token) {
		d.Tokens = append(d.Tokens, token)
	}

	return copyDevice(d), false, nil
}

// Delete deletes a device.
func (r *InMemoryRepository) Delete(_ context.Context, userID, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[deviceID]
	if !ok || d.UserID != userID {
		return ErrDeviceNotFound
	}

	delete(r.devices, deviceID)
	return nil
}

// DeleteByUser deletes all devices for a user.
func (r *InMemoryRepository) DeleteByUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, d := range r.devices {
		if d.UserID == userID {
			delete(r.devices, id)
		}
	}
	return nil
}

// TokensByUsers retrieves every token registered by the given users.
func (r *InMemoryRepository) TokensByUsers(_ context.Context, userIDs []string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}

	var tokens []string
	for _, d := range r.devices {
		if wanted[d.UserID] {
			tokens = append(tokens, d.Tokens...)
		}
	}

	return tokens, nil
}

// copyDevice creates a deep copy of a device.
func copyDevice(d *Device) *Device {
	cpy := *d
	cpy.Tokens = append([]string(nil), d.Tokens...)
	return &cpy
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
