package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/cvision/internal/auth/domain"
	"github.com/aussiebroadwan/cvision/internal/auth/store"
)

type accountsRepo struct {
	q *queries
}

func (r *accountsRepo) GetActiveAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row, err := r.q.GetActiveAccountByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return mapAccount(row), nil
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row, err := r.q.GetAccountByID(ctx, id)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return mapAccount(row), nil
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	err := r.q.CreateAccount(ctx, createAccountParams{
		ID:           a.ID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		CreatedAt:    createdAt.UTC(),
	})
	return mapUniqueViolation(err)
}

func (r *accountsRepo) SoftDeleteAccount(ctx context.Context, id string) error {
	n, err := r.q.SoftDeleteAccount(ctx, id, time.Now().UTC())
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func mapAccount(row accountRow) domain.Account {
	return domain.Account{
		ID:           row.ID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
		DeletedAt:    mapNullTimePtr(row.DeletedAt),
	}
}
