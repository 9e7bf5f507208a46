package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartshare/cartshare/internal/auth"
)

type captureProvisioner struct {
	ensured map[string]string
}

func (p *captureProvisioner) EnsureUser(_ context.Context, userID, email string) error {
	if p.ensured == nil {
		p.ensured = make(map[string]string)
	}
	p.ensured[userID] = email
	return nil
}

func newTestService(profiles auth.ProfileProvisioner) *auth.Service {
	return auth.NewService(auth.ServiceConfig{
		JWTService: auth.NewJWTService(auth.JWTConfig{
			SigningKey: "test-secret-key-for-testing-only",
			Issuer:     "https://api.cartshare.app",
			Audience:   "cartshare-api",
		}),
		UserRepo:    auth.NewInMemoryUserRepository(),
		RefreshRepo: auth.NewInMemoryRefreshTokenRepository(),
		Profiles:    profiles,
	})
}

func TestService_DevAuthenticate_ProvisionsProfile(t *testing.T) {
	profiles := &captureProvisioner{}
	svc := newTestService(profiles)

	resp, err := svc.DevAuthenticate(context.Background(), &auth.DevAuthenticateRequest{
		Email: "dev@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User)

	assert.Equal(t, "dev@example.com", profiles.ensured[resp.User.ID],
		"expected a profile created for the new user")
}

func TestService_DevAuthenticate_ExistingUserNotReprovisioned(t *testing.T) {
	profiles := &captureProvisioner{}
	svc := newTestService(profiles)

	first, err := svc.DevAuthenticate(context.Background(), &auth.DevAuthenticateRequest{})
	require.NoError(t, err)
	require.Len(t, profiles.ensured, 1)

	// Authenticating again as the same user reuses the existing record.
	again, err := svc.DevAuthenticate(context.Background(), &auth.DevAuthenticateRequest{
		UserID: first.User.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, again.User.ID)
	assert.Len(t, profiles.ensured, 1)
}

func TestService_DevAuthenticate_NilProvisioner(t *testing.T) {
	svc := newTestService(nil)

	resp, err := svc.DevAuthenticate(context.Background(), &auth.DevAuthenticateRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestService_RefreshAccessToken_Rotation(t *testing.T) {
	svc := newTestService(nil)

	resp, err := svc.DevAuthenticate(context.Background(), &auth.DevAuthenticateRequest{})
	require.NoError(t, err)

	rotated, err := svc.RefreshAccessToken(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, rotated.RefreshToken)

	// The old refresh token is revoked on rotation.
	_, err = svc.RefreshAccessToken(context.Background(), resp.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}
