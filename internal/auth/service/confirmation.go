package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/cvision/internal/auth/domain"
	"github.com/aussiebroadwan/cvision/internal/auth/pending"
	"github.com/aussiebroadwan/cvision/internal/auth/store"
	"github.com/aussiebroadwan/cvision/pkg/idx"
	"github.com/aussiebroadwan/cvision/pkg/slogx"
)

// ConfirmationService turns a pending registration into an account once the
// emailed code is presented.
type ConfirmationService struct {
	Accounts store.Accounts
	Pending  pending.Cache

	Now func() time.Time
}

// Confirm checks code against the pending registration for email and
// creates the account. A wrong code leaves the pending record in place so
// the user can try again until it expires.
func (s *ConfirmationService) Confirm(ctx context.Context, email, code string) (domain.Account, error) {
	log := slogx.FromContext(ctx).With(slog.String("email", email))

	// 1. Load the pending registration, expiry is the cache's job
	reg, err := s.Pending.Get(ctx, email)
	switch {
	case errors.Is(err, pending.ErrNotFound):
		log.Info("confirmation rejected, no pending registration")
		return domain.Account{}, ErrCodeExpired
	case err != nil:
		log.Error("failed to read pending registration", slog.Any("error", err))
		return domain.Account{}, fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
	}

	// 2. Exact match, compared in constant time
	if subtle.ConstantTimeCompare([]byte(code), []byte(reg.Code)) != 1 {
		log.Info("confirmation rejected, incorrect code")
		return domain.Account{}, ErrIncorrectCode
	}

	// 3. Create the account; the unique index settles confirmation races
	now := s.now().UTC()
	account := domain.Account{
		ID:           idx.NewAt(now).String(),
		Email:        email,
		PasswordHash: reg.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Info("confirmation rejected, email already in use")
			return domain.Account{}, ErrEmailInUse
		}
		log.Error("failed to create account", slog.Any("error", err))
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	// 4. Best effort cleanup, the record expires on its own anyway
	if err := s.Pending.Delete(ctx, email); err != nil {
		log.Warn("failed to delete pending registration", slog.Any("error", err))
	}

	log.Info("account created", slog.String("user_id", account.ID))
	return account, nil
}

func (s *ConfirmationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
