package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// SDKClient is a client for the CVision authentication service. It keeps
// the refresh cookie in its cookie jar, so one SDKClient stands for one
// browser-like user agent.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client with a fresh cookie jar.
func NewSDKClient(baseURL string) *SDKClient {
	jar, _ := cookiejar.New(nil) // never fails with nil options

	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}
}

// Register submits an email and password and triggers the confirmation
// email.
func (c *SDKClient) Register(ctx context.Context, email, password string) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.postJSON(ctx, "/v1/auth/register", RegisterRequest{Email: email, Password: password}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Confirm exchanges the emailed code for a new account.
func (c *SDKClient) Confirm(ctx context.Context, email, code string) (*ConfirmResponse, error) {
	var out ConfirmResponse
	if err := c.postJSON(ctx, "/v1/auth/validate", ConfirmRequest{Email: email, Code: code}, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates and returns a Session. The refresh cookie set by the
// server lands in the client's jar.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, error) {
	var out LoginResponse
	if err := c.postJSON(ctx, "/v1/auth/login", LoginRequest{Email: email, Password: password}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return newSession(c, &out), nil
}

// Logout asks the server to clear the refresh cookie.
func (c *SDKClient) Logout(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/logout", nil, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// GetLiveness checks if the service is alive.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

// GetReadiness checks if the service and its dependencies are ready. For a
// degraded service the checks are returned together with an error.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *SDKClient) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if resp.StatusCode == http.StatusServiceUnavailable {
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return &health, fmt.Errorf("service %s: %s", path, health.Status)
	}

	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

func (c *SDKClient) postJSON(ctx context.Context, path string, in, out any, expectedStatus int) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, path, bytes.NewReader(body), nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out, expectedStatus)
}
