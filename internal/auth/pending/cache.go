// Package pending holds registrations that are waiting for their emailed
// confirmation code.
package pending

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/cvision/internal/auth/domain"
)

// ErrNotFound is returned by Get when no live record exists for the email,
// including when the record has expired.
var ErrNotFound = errors.New("pending: not found")

// Cache stores at most one PendingRegistration per email.
//
// Expiry belongs to the cache: once ttl has elapsed since the last Set for an
// email, Get must report ErrNotFound. Set, Get and Delete are each atomic for
// a single key and a later Set replaces the earlier record and its ttl.
type Cache interface {
	Set(ctx context.Context, email string, reg domain.PendingRegistration, ttl time.Duration) error
	Get(ctx context.Context, email string) (domain.PendingRegistration, error)
	Delete(ctx context.Context, email string) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
