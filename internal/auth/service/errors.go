package service

import "errors"

// Client errors.
var (
	ErrEmailInUse         = errors.New("email already in use")
	ErrCodeExpired        = errors.New("confirmation code expired or not found")
	ErrIncorrectCode      = errors.New("incorrect confirmation code")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountNotFound    = errors.New("account not found")
)

// Collaborator failures. The underlying cause is wrapped alongside.
var (
	ErrNotificationFailed = errors.New("failed to send confirmation email")
	ErrCacheUnavailable   = errors.New("pending registration cache unavailable")
)
