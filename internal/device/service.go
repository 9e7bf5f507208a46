package device

import (
	"context"
	"time"

	"github.com/cartshare/cartshare/internal/api/models"
)

// maxUsersPerQuery is the IN-list ceiling for batch token lookups. Larger
// member sets are split into chunks of this size and merged.
const maxUsersPerQuery = 30

// Service provides device operations.
type Service struct {
	repo Repository
}

// NewService creates a new device service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List retrieves all devices for a user.
func (s *Service) List(ctx context.Context, userID string) (*models.DeviceList, error) {
	devices, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]models.Device, 0, len(devices))
	for _, d := range devices {
		items = append(items, s.toAPIDevice(d))
	}

	return &models.DeviceList{Items: items}, nil
}

// Register records a token against a device, creating the record on first
// sight and unioning the token into the set otherwise. Returns the device
// and whether it was newly created.
func (s *Service) Register(ctx context.Context, userID string, input *models.DeviceRegisterRequest) (*models.Device, bool, error) {
	if fieldErrors := s.validateRegisterInput(input); len(fieldErrors) > 0 {
		return nil, false, &ValidationError{Errors: fieldErrors}
	}

	d, created, err := s.repo.Upsert(ctx, input.DeviceID, userID, input.Token, time.Now())
	if err != nil {
		return nil, false, err
	}

	result := s.toAPIDevice(d)
	return &result, created, nil
}

// Unregister removes a device registration.
func (s *Service) Unregister(ctx context.Context, userID, deviceID string) error {
	return s.repo.Delete(ctx, userID, deviceID)
}

// TokensByUsers retrieves the deduplicated set of tokens registered by the
// given users, chunking the lookup at the store's IN-list ceiling.
func (s *Service) TokensByUsers(ctx context.Context, userIDs []string) ([]string, error) {
	seen := make(map[string]bool)
	var tokens []string

	for start := 0; start < len(userIDs); start += maxUsersPerQuery {
		end := start + maxUsersPerQuery
		if end > len(userIDs) {
			end = len(userIDs)
		}

		chunk, err := s.repo.TokensByUsers(ctx, userIDs[start:end])
		if err != nil {
			return nil, err
		}

		for _, token := range chunk {
			if !seen[token] {
				seen[token] = true
				tokens = append(tokens, token)
			}
		}
	}

	return tokens, nil
}

func (s *Service) validateRegisterInput(input *models.DeviceRegisterRequest) []models.FieldError {
	var errs []models.FieldError

	if input.DeviceID == "" {
		errs = append(errs, models.FieldError{Field: "deviceId", Message: "is required"})
	}
	if input.Token == "" {
		errs = append(errs, models.FieldError{Field: "token", Message: "is required"})
	}

	return errs
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// toAPIDevice converts a domain Device to an API Device.
func (s *Service) toAPIDevice(d *Device) models.Device {
	result := models.Device{
		ID:          d.ID,
		TokenCount:  len(d.Tokens),
		LastUpdated: models.Timestamp(d.LastUpdated),
	}
	if n := len(d.Tokens); n > 0 {
		token := d.Tokens[n-1]
		if len(token) > 4 {
			token = token[len(token)-4:]
		}
		result.TokenLast4 = &token
	}
	return result
}
