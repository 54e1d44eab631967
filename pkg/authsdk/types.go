package authsdk

import "time"

// ============================================================================
// Registration Types
// ============================================================================

// RegisterRequest starts a registration. A six digit code is emailed to
// Email and must be confirmed within 15 minutes.
type RegisterRequest struct {
	// Email is the address to register (max 100 chars)
	Email string `json:"email" example:"jane@example.com"`

	// Password must be 8-30 chars with a lower, an upper, a digit and a special character
	Password string `json:"password" example:"Sup3r$ecret"`
}

// ConfirmRequest completes a registration with the emailed code.
type ConfirmRequest struct {
	Email string `json:"email" example:"jane@example.com"`

	// Code is the six digit confirmation code
	Code string `json:"code" example:"482913"`
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// AccountInfo is the public view of an account.
type AccountInfo struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ConfirmResponse is returned with 201 Created once the account exists.
type ConfirmResponse struct {
	Message string      `json:"message"`
	Account AccountInfo `json:"account"`
}

// ============================================================================
// Session Types
// ============================================================================

// LoginRequest authenticates with email and password.
type LoginRequest struct {
	Email    string `json:"email" example:"jane@example.com"`
	Password string `json:"password" example:"Sup3r$ecret"`
}

// LoginResponse carries the session token. The refresh token is only ever
// delivered in the refreshToken cookie.
type LoginResponse struct {
	Message string `json:"message"`

	// SessionToken is the short-lived JWT for the Authorization header
	SessionToken string `json:"session_token"`

	// TokenType is always "Bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the session token
	ExpiresIn int `json:"expires_in"`
}

// MeResponse is the identity carried by the authenticating token.
type MeResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status is "ok" or "degraded"
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports each dependency as "ok" or "error: ...".
type HealthChecks struct {
	Database string `json:"database"`
	Cache    string `json:"cache"`
	Signer   string `json:"signer"`
}
