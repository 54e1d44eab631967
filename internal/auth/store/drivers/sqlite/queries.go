package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db dbtx
}

func newQueries(db dbtx) *queries {
	return &queries{db: db}
}

type accountRow struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    sql.NullTime
}

const accountColumns = `id, email, password_hash, created_at, updated_at, deleted_at`

func scanAccount(row *sql.Row) (accountRow, error) {
	var a accountRow
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt)
	return a, err
}

const getActiveAccountByEmail = `SELECT ` + accountColumns + `
FROM accounts
WHERE email = ? AND deleted_at IS NULL`

func (q *queries) GetActiveAccountByEmail(ctx context.Context, email string) (accountRow, error) {
	return scanAccount(q.db.QueryRowContext(ctx, getActiveAccountByEmail, email))
}

const getAccountByID = `SELECT ` + accountColumns + `
FROM accounts
WHERE id = ?`

func (q *queries) GetAccountByID(ctx context.Context, id string) (accountRow, error) {
	return scanAccount(q.db.QueryRowContext(ctx, getAccountByID, id))
}

const createAccount = `INSERT INTO accounts (id, email, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`

type createAccountParams struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

func (q *queries) CreateAccount(ctx context.Context, arg createAccountParams) error {
	_, err := q.db.ExecContext(ctx, createAccount,
		arg.ID,
		arg.Email,
		arg.PasswordHash,
		arg.CreatedAt,
		arg.CreatedAt,
	)
	return err
}

const softDeleteAccount = `UPDATE accounts
SET deleted_at = ?, updated_at = ?
WHERE id = ? AND deleted_at IS NULL`

func (q *queries) SoftDeleteAccount(ctx context.Context, id string, at time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, softDeleteAccount, at, at, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
