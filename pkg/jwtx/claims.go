package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClass distinguishes the two token families issued by the service.
// A token of one class is never accepted where the other is expected.
type TokenClass string

const (
	// ClassSession tokens authorize individual requests and travel in the
	// Authorization header only.
	ClassSession TokenClass = "session"

	// ClassRefresh tokens only mint new session tokens and travel in an
	// HttpOnly cookie only.
	ClassRefresh TokenClass = "refresh"
)

// Default token lifetimes.
const (
	DefaultSessionTokenTTL = 30 * time.Minute
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

func (c TokenClass) Valid() bool {
	return c == ClassSession || c == ClassRefresh
}

// Identity is the subject a token speaks for. It is the whole application
// payload of both token classes.
type Identity struct {
	UserID string
	Email  string
}

// Claims are the claims carried by both token classes.
type Claims struct {
	jwt.RegisteredClaims

	UserID string     `json:"id"`
	Email  string     `json:"email"`
	Class  TokenClass `json:"cls"`
}

// NewClaims builds minimally-correct claims for the given identity.
func NewClaims(id Identity, class TokenClass, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		UserID: id.UserID,
		Email:  id.Email,
		Class:  class,
	}
}

// Identity returns the subject the claims were issued for.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Email: c.Email}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateClass checks the class marker against the class being verified.
func (c *Claims) ValidateClass(expected TokenClass) error {
	if c.Class != expected {
		return ErrWrongClass
	}
	return nil
}

// ValidateSubject requires the identity fields to be present.
func (c *Claims) ValidateSubject() error {
	if c.UserID == "" || c.Email == "" {
		return ErrInvalidClaim
	}
	return nil
}
