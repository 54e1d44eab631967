package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/cvision/internal/auth/store"
	"github.com/aussiebroadwan/cvision/pkg/slogx"
)

type AccountService struct {
	Accounts store.Accounts
}

// Delete soft-deletes the account. Its email becomes free for a new
// registration; issued tokens stay valid until they expire.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	log := slogx.FromContext(ctx).With(slog.String("user_id", id))

	if err := s.Accounts.SoftDeleteAccount(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		log.Error("failed to delete account", slog.Any("error", err))
		return err
	}

	log.Info("account deleted")
	return nil
}
