package domain

import "time"

const (
	// PendingRegistrationTTL is the absolute lifetime of a pending registration.
	PendingRegistrationTTL = 15 * time.Minute

	// ConfirmationCodeDigits is the length of the emailed one-time code.
	ConfirmationCodeDigits = 6
)

// PendingRegistration bridges a registration submission and its confirmation.
// It is keyed by email in the pending cache and never stored durably.
type PendingRegistration struct {
	Code         string `json:"code"`
	PasswordHash string `json:"password_hash"`
}
