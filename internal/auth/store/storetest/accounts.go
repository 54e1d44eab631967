// Package storetest holds the behavioural checks every store driver must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/cvision/internal/auth/domain"
	"github.com/aussiebroadwan/cvision/internal/auth/store"
	"github.com/aussiebroadwan/cvision/pkg/idx"
	"github.com/stretchr/testify/require"
)

// RunAccounts exercises store.Accounts against a freshly migrated store
// returned by open. Each subtest gets its own store.
func RunAccounts(t *testing.T, open func(t *testing.T) store.Store) {
	t.Helper()

	ctx := context.Background()

	newAccount := func(email string) domain.Account {
		return domain.Account{
			ID:           idx.New().String(),
			Email:        email,
			PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
			CreatedAt:    time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("create then fetch", func(t *testing.T) {
		s := open(t)
		acc := newAccount("alice@example.com")
		require.NoError(t, s.Accounts().CreateAccount(ctx, acc))

		got, err := s.Accounts().GetActiveAccountByEmail(ctx, acc.Email)
		require.NoError(t, err)
		require.Equal(t, acc.ID, got.ID)
		require.Equal(t, acc.Email, got.Email)
		require.Equal(t, acc.PasswordHash, got.PasswordHash)
		require.WithinDuration(t, acc.CreatedAt, got.CreatedAt, time.Second)
		require.Nil(t, got.DeletedAt)
		require.True(t, got.Active())

		byID, err := s.Accounts().GetAccountByID(ctx, acc.ID)
		require.NoError(t, err)
		require.Equal(t, acc.Email, byID.Email)
	})

	t.Run("missing account", func(t *testing.T) {
		s := open(t)

		_, err := s.Accounts().GetActiveAccountByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.Accounts().GetAccountByID(ctx, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)

		require.ErrorIs(t, s.Accounts().SoftDeleteAccount(ctx, idx.New().String()), store.ErrNotFound)
	})

	t.Run("duplicate active email", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Accounts().CreateAccount(ctx, newAccount("bob@example.com")))

		err := s.Accounts().CreateAccount(ctx, newAccount("bob@example.com"))
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("soft delete frees the email", func(t *testing.T) {
		s := open(t)
		first := newAccount("carol@example.com")
		require.NoError(t, s.Accounts().CreateAccount(ctx, first))
		require.NoError(t, s.Accounts().SoftDeleteAccount(ctx, first.ID))

		_, err := s.Accounts().GetActiveAccountByEmail(ctx, first.Email)
		require.ErrorIs(t, err, store.ErrNotFound)

		deleted, err := s.Accounts().GetAccountByID(ctx, first.ID)
		require.NoError(t, err)
		require.NotNil(t, deleted.DeletedAt)
		require.False(t, deleted.Active())

		// deleting twice is a miss
		require.ErrorIs(t, s.Accounts().SoftDeleteAccount(ctx, first.ID), store.ErrNotFound)

		second := newAccount(first.Email)
		require.NoError(t, s.Accounts().CreateAccount(ctx, second))

		got, err := s.Accounts().GetActiveAccountByEmail(ctx, first.Email)
		require.NoError(t, err)
		require.Equal(t, second.ID, got.ID)
	})

	t.Run("migrations are idempotent", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.ApplyMigrations())
		require.NoError(t, s.Ping(ctx))
	})
}
