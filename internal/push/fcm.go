// Package push provides an FCM HTTP v1 client for delivering push
// notifications.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/cartshare/cartshare/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the base URL for the FCM HTTP v1 API.
	DefaultBaseURL = "https://fcm.googleapis.com"

	// ProviderName identifies this provider.
	ProviderName = "fcm"

	// messagingScope is the OAuth scope required for FCM sends.
	messagingScope = "https://www.googleapis.com/auth/firebase.messaging"

	// maxBodySample bounds how much of an error response lands in logs.
	maxBodySample = 512
)

// ClientConfig holds configuration for the FCM client.
type ClientConfig struct {
	// ProjectID is the Firebase project ID (required).
	ProjectID string

	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// CredentialsJSON is a service account key. When empty, ambient
	// application default credentials are used.
	CredentialsJSON []byte

	// TokenSource overrides credential discovery entirely. Mainly for tests.
	TokenSource oauth2.TokenSource

	// HTTPClient is the HTTP client to use (must implement HTTPDoer).
	// If nil, a default resilient client will be created.
	HTTPClient HTTPDoer

	// Timeout for individual send requests (default: 10s).
	Timeout time.Duration
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is an FCM HTTP v1 API client.
type Client struct {
	baseURL    string
	projectID  string
	httpClient HTTPDoer
	tokens     oauth2.TokenSource
}

// NewClient creates a new FCM client. Credentials are resolved once here;
// the returned token source mints and caches short-lived bearer tokens.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("fcm: project ID is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		resilient := resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         timeout,
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		})
		resilience.GlobalRegistry.Register(ProviderName, resilient)
		httpClient = resilient
	}

	tokens := cfg.TokenSource
	if tokens == nil {
		var err error
		tokens, err = resolveTokenSource(ctx, cfg.CredentialsJSON)
		if err != nil {
			return nil, err
		}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		projectID:  cfg.ProjectID,
		httpClient: httpClient,
		tokens:     tokens,
	}, nil
}

func resolveTokenSource(ctx context.Context, credentialsJSON []byte) (oauth2.TokenSource, error) {
	if len(credentialsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, messagingScope)
		if err != nil {
			return nil, fmt.Errorf("fcm: parse credentials: %w", err)
		}
		return creds.TokenSource, nil
	}

	creds, err := google.FindDefaultCredentials(ctx, messagingScope)
	if err != nil {
		return nil, fmt.Errorf("fcm: resolve default credentials: %w", err)
	}
	return creds.TokenSource, nil
}

// API request types (FCM HTTP v1).

type sendRequest struct {
	Message message `json:"message"`
}

type message struct {
	Token        string       `json:"token"`
	Notification notification `json:"notification"`
}

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// SendResult carries the send API's response verbatim.
type SendResult struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the send was accepted.
func (r *SendResult) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// SendMessage delivers a notification to a single token and returns the
// API's status and body as-is. A non-2xx status is not an error here;
// callers that only care about success use Send.
func (c *Client) SendMessage(ctx context.Context, token, title, body string) (*SendResult, error) {
	payload, err := json.Marshal(sendRequest{
		Message: message{
			Token:        token,
			Notification: notification{Title: title, Body: body},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode send request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/projects/%s/messages:send", c.baseURL, c.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	authToken, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}
	authToken.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		resilience.GlobalRegistry.RecordFailure(ProviderName, err)
		return nil, fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	resilience.GlobalRegistry.RecordSuccess(ProviderName)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read send response: %w", err)
	}

	return &SendResult{
		StatusCode: resp.StatusCode,
		Body:       respBody,
	}, nil
}

// Send delivers a notification to a single token, reducing the API response
// to success or failure.
func (c *Client) Send(ctx context.Context, token, title, body string) error {
	result, err := c.SendMessage(ctx, token, title, body)
	if err != nil {
		return err
	}

	if !result.OK() {
		sample := result.Body
		if len(sample) > maxBodySample {
			sample = sample[:maxBodySample]
		}
		return fmt.Errorf("fcm send failed with status %d: %s", result.StatusCode, sample)
	}

	return nil
}
