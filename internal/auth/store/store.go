package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/cvision/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this and expose sub-repositories to keep concerns tidy.
type Store interface {
	Accounts() Accounts

	// ApplyMigrations brings the schema up to date. Safe to call repeatedly.
	ApplyMigrations() error

	// Close releases the underlying pool.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Accounts is the durable account store. Drivers must enforce at most one
// non-deleted account per email with a unique constraint, CreateAccount
// reports a violation as ErrAlreadyExists.
type Accounts interface {
	// GetActiveAccountByEmail ignores soft-deleted rows.
	GetActiveAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// GetAccountByID returns the account including soft-deleted ones.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// CreateAccount inserts a new account (id is provided by app via ULID).
	CreateAccount(ctx context.Context, a domain.Account) error

	// SoftDeleteAccount sets deleted_at on an active account. ErrNotFound when
	// the account does not exist or is already deleted.
	SoftDeleteAccount(ctx context.Context, id string) error
}
