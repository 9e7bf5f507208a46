package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cartshare/cartshare/internal/provider/resilience"
)

const (
	// keyCacheRefreshInterval is how often to refresh the provider's
	// public keys.
	keyCacheRefreshInterval = 24 * time.Hour
)

// Predefined errors for identity token verification.
var (
	ErrInvalidToken     = errors.New("invalid identity token")
	ErrTokenExpired     = errors.New("identity token has expired")
	ErrInvalidIssuer    = errors.New("invalid token issuer")
	ErrInvalidAudience  = errors.New("invalid token audience")
	ErrNonceMismatch    = errors.New("nonce mismatch")
	ErrKeyNotFound      = errors.New("signing key not found")
	ErrFetchingKeys     = errors.New("failed to fetch provider public keys")
	ErrInvalidKeyFormat = errors.New("invalid key format")
)

// JWK represents a single JSON Web Key from the provider.
type JWK struct {
	Kty string `json:"kty"` // Key type (RSA)
	Kid string `json:"kid"` // Key ID
	Use string `json:"use"` // Key use (sig)
	Alg string `json:"alg"` // Algorithm (RS256)
	N   string `json:"n"`   // RSA modulus
	E   string `json:"e"`   // RSA exponent
}

// JWKS represents the provider's JSON Web Key Set.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// HTTPDoer is an interface for making HTTP requests.
// Both *http.Client and *resilience.Client satisfy this interface.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// IDTokenVerifier verifies identity tokens issued by an OIDC provider.
type IDTokenVerifier struct {
	httpClient HTTPDoer
	issuer     string
	jwksURL    string
	audience   string

	// Key cache
	mu            sync.RWMutex
	keys          map[string]*rsa.PublicKey
	keysUpdatedAt time.Time
}

// VerifierConfig holds configuration for the identity token verifier.
type VerifierConfig struct {
	// Issuer is the provider's issuer URL.
	Issuer string

	// JWKSURL is the provider's public key endpoint.
	JWKSURL string

	// Audience is the client identifier tokens must be issued for.
	Audience string

	// HTTPClient is an optional custom HTTP client for fetching keys.
	// Can be *http.Client or *resilience.Client.
	// If nil, a resilient client with circuit breaker is used.
	HTTPClient HTTPDoer
}

// NewIDTokenVerifier creates a new identity token verifier.
func NewIDTokenVerifier(cfg VerifierConfig) *IDTokenVerifier {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Use a resilient client with circuit breaker and retry logic
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            "identity-provider",
			Timeout:         10 * time.Second,
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     2 * time.Second,
		})
	}

	return &IDTokenVerifier{
		httpClient: httpClient,
		issuer:     cfg.Issuer,
		jwksURL:    cfg.JWKSURL,
		audience:   cfg.Audience,
		keys:       make(map[string]*rsa.PublicKey),
	}
}

// VerifyToken verifies a provider identity token and returns the claims.
func (v *IDTokenVerifier) VerifyToken(ctx context.Context, tokenString, expectedNonce string) (*IdentityClaims, error) {
	// Parse the token without verification first to get the key ID
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	// Get the key ID from the token header
	kid, ok := token.Header["kid"].(string)
	if !ok || kid == "" {
		return nil, fmt.Errorf("%w: missing key ID", ErrInvalidToken)
	}

	// Get the public key for verification
	publicKey, err := v.getPublicKey(ctx, kid)
	if err != nil {
		return nil, err
	}

	// Parse and verify the token
	token, err = jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	).ParseWithClaims(tokenString, &identityClaims{}, func(t *jwt.Token) (interface{}, error) {
		return publicKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenInvalidIssuer) {
			return nil, ErrInvalidIssuer
		}
		if errors.Is(err, jwt.ErrTokenInvalidAudience) {
			return nil, ErrInvalidAudience
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	// Extract claims
	ic, ok := token.Claims.(*identityClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	// Verify nonce if provided
	if expectedNonce != "" && ic.Nonce != expectedNonce {
		return nil, ErrNonceMismatch
	}

	claims := &IdentityClaims{
		Issuer:    ic.Issuer,
		Subject:   ic.Subject,
		Audience:  v.audience,
		IssuedAt:  ic.IssuedAt.Unix(),
		ExpiresAt: ic.ExpiresAt.Unix(),
		Nonce:     ic.Nonce,
		Email:     ic.Email,
	}

	return claims, nil
}

// identityClaims is an internal type implementing jwt.Claims.
type identityClaims struct {
	jwt.RegisteredClaims
	Nonce string `json:"nonce,omitempty"`
	Email string `json:"email,omitempty"`
}

// getPublicKey retrieves the public key for the given key ID.
func (v *IDTokenVerifier) getPublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	// Check cache first
	v.mu.RLock()
	key, ok := v.keys[kid]
	needsRefresh := time.Since(v.keysUpdatedAt) > keyCacheRefreshInterval
	v.mu.RUnlock()

	if ok && !needsRefresh {
		return key, nil
	}

	// Refresh keys
	if err := v.refreshKeys(ctx); err != nil {
		// If we have a cached key, use it even if refresh failed
		v.mu.RLock()
		key, ok = v.keys[kid]
		v.mu.RUnlock()
		if ok {
			return key, nil
		}
		return nil, err
	}

	// Get key from refreshed cache
	v.mu.RLock()
	key, ok = v.keys[kid]
	v.mu.RUnlock()

	if !ok {
		return nil, ErrKeyNotFound
	}

	return key, nil
}

// refreshKeys fetches the latest public keys from the provider.
func (v *IDTokenVerifier) refreshKeys(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFetchingKeys, err.Error())
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFetchingKeys, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrFetchingKeys, resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return fmt.Errorf("%w: %s", ErrFetchingKeys, err.Error())
	}

	// Convert JWKs to RSA public keys
	newKeys := make(map[string]*rsa.PublicKey)
	for _, jwk := range jwks.Keys {
		if jwk.Kty != "RSA" {
			continue
		}

		key, err := jwkToRSAPublicKey(jwk)
		if err != nil {
			continue // Skip invalid keys
		}
		newKeys[jwk.Kid] = key
	}

	// Update cache
	v.mu.Lock()
	v.keys = newKeys
	v.keysUpdatedAt = time.Now()
	v.mu.Unlock()

	return nil
}

// jwkToRSAPublicKey converts a JWK to an RSA public key.
func jwkToRSAPublicKey(jwk JWK) (*rsa.PublicKey, error) {
	// Decode modulus (n)
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid modulus", ErrInvalidKeyFormat)
	}
	n := new(big.Int).SetBytes(nBytes)

	// Decode exponent (e)
	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid exponent", ErrInvalidKeyFormat)
	}

	// Convert exponent bytes to int
	var e int
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}

	return &rsa.PublicKey{
		N: n,
		E: e,
	}, nil
}
