package device_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cartshare/cartshare/internal/api/models"
	"github.com/cartshare/cartshare/internal/device"
)

// chunkRecorder records the size of every batch lookup.
type chunkRecorder struct {
	device.Repository
	chunkSizes []int
}

func (r *chunkRecorder) TokensByUsers(ctx context.Context, userIDs []string) ([]string, error) {
	r.chunkSizes = append(r.chunkSizes, len(userIDs))
	return r.Repository.TokensByUsers(ctx, userIDs)
}

func TestService_Register(t *testing.T) {
	repo := device.NewInMemoryRepository()
	service := device.NewService(repo)
	ctx := context.Background()

	result, created, err := service.Register(ctx, "user123", &models.DeviceRegisterRequest{
		DeviceID: "dev-1",
		Token:    "fcm-token-aaaaaaaaaaaaaaaa",
	})
	if err != nil {
		t.Fatalf("failed to register device: %v", err)
	}

	if !created {
		t.Error("expected device to be newly created")
	}
	if result.TokenCount != 1 {
		t.Errorf("expected 1 token, got %d", result.TokenCount)
	}
}

func TestService_Register_Validation(t *testing.T) {
	repo := device.NewInMemoryRepository()
	service := device.NewService(repo)
	ctx := context.Background()

	tests := []struct {
		name    string
		input   models.DeviceRegisterRequest
		wantErr bool
	}{
		{"missing device id", models.DeviceRegisterRequest{Token: "t"}, true},
		{"missing token", models.DeviceRegisterRequest{DeviceID: "dev-1"}, true},
		// Tokens are stored verbatim, any non-empty value registers.
		{"short token", models.DeviceRegisterRequest{DeviceID: "dev-1", Token: "t"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			_, _, err := service.Register(ctx, "user123", &input)
			if tt.wantErr {
				var verr *device.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected a validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("failed to register device: %v", err)
			}
		})
	}
}

func TestService_Register_TokenUnion(t *testing.T) {
	repo := device.NewInMemoryRepository()
	service := device.NewService(repo)
	ctx := context.Background()

	tokens := []string{
		"fcm-token-aaaaaaaaaaaaaaaa",
		"fcm-token-bbbbbbbbbbbbbbbb",
		"fcm-token-aaaaaaaaaaaaaaaa", // repeat
	}

	var (
		result  *models.Device
		created bool
		err     error
	)
	for _, token := range tokens {
		result, created, err = service.Register(ctx, "user123", &models.DeviceRegisterRequest{
			DeviceID: "dev-1",
			Token:    token,
		})
		if err != nil {
			t.Fatalf("failed to register device: %v", err)
		}
	}

	if created {
		t.Error("expected re-registration to update, not create")
	}
	if result.TokenCount != 2 {
		t.Errorf("expected 2 tokens after dedupe, got %d", result.TokenCount)
	}

	stored, err := repo.Get(ctx, "user123", "dev-1")
	if err != nil {
		t.Fatalf("failed to get device: %v", err)
	}
	if !stored.HasToken(tokens[0]) || !stored.HasToken(tokens[1]) {
		t.Errorf("expected both tokens retained, got %v", stored.Tokens)
	}
}

func TestService_Unregister(t *testing.T) {
	repo := device.NewInMemoryRepository()
	service := device.NewService(repo)
	ctx := context.Background()

	if _, _, err := service.Register(ctx, "user123", &models.DeviceRegisterRequest{
		DeviceID: "dev-1",
		Token:    "fcm-token-aaaaaaaaaaaaaaaa",
	}); err != nil {
		t.Fatalf("failed to register device: %v", err)
	}

	// Only the owner may unregister.
	if err := service.Unregister(ctx, "other", "dev-1"); err != device.ErrDeviceNotFound {
		t.Errorf("expected ErrDeviceNotFound for non-owner, got %v", err)
	}
	if err := service.Unregister(ctx, "user123", "dev-1"); err != nil {
		t.Errorf("failed to unregister device: %v", err)
	}
}

func TestService_TokensByUsers_Dedupe(t *testing.T) {
	repo := device.NewInMemoryRepository()
	service := device.NewService(repo)
	ctx := context.Background()

	// Two users sharing one token (a handed-down phone) plus one each.
	registrations := []struct {
		userID, deviceID, token string
	}{
		{"alice", "dev-a", "fcm-token-shared-aaaaaaaaa"},
		{"alice", "dev-a2", "fcm-token-alice-bbbbbbbbbb"},
		{"bob", "dev-b", "fcm-token-shared-aaaaaaaaa"},
		{"bob", "dev-b2", "fcm-token-bob-cccccccccccc"},
	}
	for _, reg := range registrations {
		if _, _, err := service.Register(ctx, reg.userID, &models.DeviceRegisterRequest{
			DeviceID: reg.deviceID,
			Token:    reg.token,
		}); err != nil {
			t.Fatalf("failed to register device: %v", err)
		}
	}

	tokens, err := service.TokensByUsers(ctx, []string{"alice", "bob"})
	if err != nil {
		t.Fatalf("failed to look up tokens: %v", err)
	}

	if len(tokens) != 3 {
		t.Errorf("expected 3 distinct tokens, got %d: %v", len(tokens), tokens)
	}
}

func TestService_TokensByUsers_Chunking(t *testing.T) {
	recorder := &chunkRecorder{Repository: device.NewInMemoryRepository()}
	service := device.NewService(recorder)
	ctx := context.Background()

	userIDs := make([]string, 65)
	for i := range userIDs {
		userIDs[i] = fmt.Sprintf("user-%03d", i)
	}

	if _, err := service.TokensByUsers(ctx, userIDs); err != nil {
		t.Fatalf("failed to look up tokens: %v", err)
	}

	want := []int{30, 30, 5}
	if len(recorder.chunkSizes) != len(want) {
		t.Fatalf("expected %d chunks, got %v", len(want), recorder.chunkSizes)
	}
	for i, size := range want {
		if recorder.chunkSizes[i] != size {
			t.Errorf("chunk %d: expected size %d, got %d", i, size, recorder.chunkSizes[i])
		}
	}
}

func TestService_TokensByUsers_Empty(t *testing.T) {
	service := device.NewService(device.NewInMemoryRepository())

	tokens, err := service.TokensByUsers(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("expected no tokens, got %v", tokens)
	}
}
