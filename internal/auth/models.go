// Package auth provides authentication services for CartShare. Identity is
// delegated to an external OIDC provider; this package verifies the
// provider's identity tokens and issues the API's own token pair.
package auth

import "time"

// User represents an authenticated user in the system.
type User struct {
	ID        string    `json:"userId"`
	Subject   string    `json:"-"` // provider's user identifier, never exposed
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TokenRequest represents the request body for exchanging a provider
// identity token for API tokens.
type TokenRequest struct {
	// IdentityToken is the JWT identity token received from the provider.
	IdentityToken string `json:"identityToken"`

	// Nonce is the nonce used when requesting the token (for replay protection).
	Nonce string `json:"nonce,omitempty"`
}

// Validate validates the token request.
func (r *TokenRequest) Validate() []FieldError {
	var errors []FieldError

	if r.IdentityToken == "" {
		errors = append(errors, FieldError{
			Field:   "identityToken",
			Message: "identity token is required",
			Code:    "REQUIRED",
		})
	}

	return errors
}

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// TokenResponse represents the response after successful authentication.
type TokenResponse struct {
	// AccessToken is the JWT access token for API authentication.
	AccessToken string `json:"accessToken"`

	// TokenType is always "Bearer".
	TokenType string `json:"tokenType"`

	// ExpiresIn is the number of seconds until the access token expires.
	ExpiresIn int64 `json:"expiresIn"`

	// RefreshToken is the opaque token used to obtain new access tokens.
	RefreshToken string `json:"refreshToken,omitempty"`

	// User contains the authenticated user's information.
	User *User `json:"user"`
}

// RefreshTokenRequest represents the request to refresh an access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Validate validates the refresh token request.
func (r *RefreshTokenRequest) Validate() []FieldError {
	var errors []FieldError

	if r.RefreshToken == "" {
		errors = append(errors, FieldError{
			Field:   "refreshToken",
			Message: "refresh token is required",
			Code:    "REQUIRED",
		})
	}

	return errors
}

// IdentityClaims represents the verified claims of a provider identity token.
type IdentityClaims struct {
	// Issuer is the provider's issuer URL.
	Issuer string `json:"iss"`

	// Subject is the provider's unique identifier for the user.
	Subject string `json:"sub"`

	// Audience is the client identifier the token was issued for.
	Audience string `json:"aud"`

	// IssuedAt is when the token was issued.
	IssuedAt int64 `json:"iat"`

	// ExpiresAt is when the token expires.
	ExpiresAt int64 `json:"exp"`

	// Nonce is the nonce value passed to the provider when requesting the token.
	Nonce string `json:"nonce,omitempty"`

	// Email is the user's email (may not always be present).
	Email string `json:"email,omitempty"`
}
