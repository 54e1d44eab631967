package domain

import "time"

type Account struct {
	ID           string
	Email        string // unique among non-deleted accounts, compared as stored
	PasswordHash string // argon2id PHC string, never logged or returned
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time // soft-delete marker; deleted accounts are absent for auth
}

// Active reports whether the account has not been soft-deleted.
func (a Account) Active() bool { return a.DeletedAt == nil }
