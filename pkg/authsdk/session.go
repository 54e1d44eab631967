package authsdk

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Session holds the current session token for a logged in user. When the
// server renews an expired session token from the refresh cookie, the
// Session adopts the new token from the Authorization response header.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	sessionToken string
	expiresAt    time.Time
}

func newSession(client *SDKClient, resp *LoginResponse) *Session {
	return &Session{
		client:       client,
		sessionToken: resp.SessionToken,
		expiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}
}

// NewSessionFromToken wraps an existing session token. Renewal still works
// if the client's jar holds a refresh cookie.
func (c *SDKClient) NewSessionFromToken(token string) *Session {
	return &Session{client: c, sessionToken: token}
}

// SessionToken returns the current session token.
func (s *Session) SessionToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionToken
}

// ExpiresAt is the expiry the server announced for the current token. It is
// zero for tokens adopted from a renewal or NewSessionFromToken.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Me returns the identity of the session.
func (s *Session) Me(ctx context.Context) (*MeResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/auth/me")
	if err != nil {
		return nil, err
	}

	var out MeResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAccount soft-deletes the account behind the session. The server
// also clears the refresh cookie.
func (s *Session) DeleteAccount(ctx context.Context) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/v1/auth/me")
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// adoptRenewed stores a session token the server minted during the request.
func (s *Session) adoptRenewed(resp *http.Response) {
	scheme, token, ok := strings.Cut(resp.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return
	}

	s.mu.Lock()
	s.sessionToken = token
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}
