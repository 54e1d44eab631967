package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/cvision/internal/auth/domain"
	"github.com/aussiebroadwan/cvision/internal/auth/notify"
	"github.com/aussiebroadwan/cvision/internal/auth/pending"
	"github.com/aussiebroadwan/cvision/internal/auth/store"
	"github.com/aussiebroadwan/cvision/pkg/cryptox"
	"github.com/aussiebroadwan/cvision/pkg/slogx"
)

// RegistrationService runs the first half of sign-up: it emails a one-time
// code and parks the hashed password until the code is confirmed.
type RegistrationService struct {
	Accounts store.Accounts
	Pending  pending.Cache
	Hasher   PasswordHasher
	Notifier notify.Notifier

	// TTL of the pending record, defaults to domain.PendingRegistrationTTL.
	TTL time.Duration

	// GenerateCode defaults to a six digit cryptox.GenerateNumericCode.
	GenerateCode func() (string, error)

	Now func() time.Time
}

// Register starts a registration for email. Nothing is written when the
// email cannot be delivered. Submitting again for the same email replaces
// the earlier code.
func (s *RegistrationService) Register(ctx context.Context, email, password string) error {
	log := slogx.FromContext(ctx).With(slog.String("email", email))

	// 1. Reject emails that already belong to an active account
	_, err := s.Accounts.GetActiveAccountByEmail(ctx, email)
	switch {
	case err == nil:
		log.Info("registration rejected, email already in use")
		return ErrEmailInUse
	case !errors.Is(err, store.ErrNotFound):
		log.Error("failed to look up account", slog.Any("error", err))
		return fmt.Errorf("lookup account: %w", err)
	}

	// 2. Hash the password now so the plaintext never reaches the cache
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return fmt.Errorf("hash password: %w", err)
	}

	// 3. Draw the confirmation code
	code, err := s.generateCode()
	if err != nil {
		log.Error("failed to generate confirmation code", slog.Any("error", err))
		return fmt.Errorf("generate code: %w", err)
	}

	// 4. Deliver it before persisting anything
	msg, err := notify.VerificationMessage(email, code, s.now())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}
	if err := s.Notifier.Send(ctx, msg); err != nil {
		log.Error("failed to send confirmation email", slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}

	// 5. Park the registration until it is confirmed or expires
	reg := domain.PendingRegistration{Code: code, PasswordHash: hash}
	if err := s.Pending.Set(ctx, email, reg, s.ttl()); err != nil {
		log.Error("failed to store pending registration", slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
	}

	log.Info("registration pending confirmation", slog.Duration("ttl", s.ttl()))
	return nil
}

func (s *RegistrationService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return domain.PendingRegistrationTTL
}

func (s *RegistrationService) generateCode() (string, error) {
	if s.GenerateCode != nil {
		return s.GenerateCode()
	}
	return cryptox.GenerateNumericCode(domain.ConfirmationCodeDigits)
}

func (s *RegistrationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
