package auth_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/cvision/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestRegistrationRoundTrip covers register, confirm, login and me.
func TestRegistrationRoundTrip(t *testing.T) {
	svc := setupService(t)
	client := authsdk.NewSDKClient(svc.URL)
	email := uniqueEmail("roundtrip")

	msg, err := client.Register(t.Context(), email, testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, msg.Message)
	require.Equal(t, 1, svc.Outbox.count(), "one verification email")

	confirmed, err := client.Confirm(t.Context(), email, svc.Outbox.lastCode(t, email))
	require.NoError(t, err)
	require.Equal(t, email, confirmed.Account.Email)
	require.Len(t, confirmed.Account.ID, 26, "account IDs are ULIDs")
	require.False(t, confirmed.Account.CreatedAt.IsZero())

	session := performLogin(t, client, email, testPassword)
	require.WithinDuration(t, time.Now().Add(30*time.Minute), session.ExpiresAt(), 5*time.Second)

	me, err := session.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, confirmed.Account.ID, me.ID)
	require.Equal(t, email, me.Email)
}

// TestConfirmWrongCodeKeepsRegistration verifies a typo can be retried.
func TestConfirmWrongCodeKeepsRegistration(t *testing.T) {
	svc := setupService(t)
	client := authsdk.NewSDKClient(svc.URL)
	email := uniqueEmail("typo")

	_, err := client.Register(t.Context(), email, testPassword)
	require.NoError(t, err)
	code := svc.Outbox.lastCode(t, email)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = client.Confirm(t.Context(), email, wrong)
	assertAPIError(t, err, authsdk.ErrIncorrectCode)

	_, err = client.Confirm(t.Context(), email, code)
	require.NoError(t, err, "the right code should still work after a wrong one")
}

// TestConfirmWithoutRegistration reports an expired code when nothing is pending.
func TestConfirmWithoutRegistration(t *testing.T) {
	svc := setupService(t)
	client := authsdk.NewSDKClient(svc.URL)

	_, err := client.Confirm(t.Context(), uniqueEmail("ghost"), "123456")
	assertAPIError(t, err, authsdk.ErrCodeExpired)
}

// TestConfirmConsumesRegistration verifies a code cannot be replayed.
func TestConfirmConsumesRegistration(t *testing.T) {
	svc := setupService(t)
	client := authsdk.NewSDKClient(svc.URL)
	email := uniqueEmail("replay")

	registerAccount(t, svc, client, email)

	_, err := client.Confirm(t.Context(), email, svc.Outbox.lastCode(t, email))
	assertAPIError(t, err, authsdk.ErrCodeExpired)
}

// TestReRegisterReplacesCode verifies only the newest code is accepted.
func TestReRegisterReplacesCode(t *testing.T) {
	svc := setupService(t)
	client := authsdk.NewSDKClient(svc.URL)
	email := uniqueEmail("again")

	_, err := client.Register(t.Context(), email, testPassword)
	require.NoError(t, err)
	first := svc.Outbox.lastCode(t, email)

	// codes are random, so retry until the second one differs
	second := first
	for second == first {
		_, err = client.Register(t.Context(), email, "An0ther$ecret")
		require.NoError(t, err)
		second = svc.Outbox.lastCode(t, email)
	}

	_, err = client.Confirm(t.Context(), email, first)
	assertAPIError(t, err, authsdk.ErrIncorrectCode)

	_, err = client.Confirm(t.Context(), email, second)
	require.NoError(t, err)

	// the password from the latest registration is the one stored
	_, err = client.Login(t.Context(), email, testPassword)
	assertAPIError(t, err, authsdk.ErrInvalidCredentials)
	performLogin(t, client, email, "An0ther$ecret")
}

// TestRegisterEmailInUse rejects registering an active account's email.
func TestRegisterEmailInUse(t *testing.T) {
	svc := setupService(t)
	client := authsdk.NewSDKClient(svc.URL)
	email := uniqueEmail("taken")

	registerAccount(t, svc, client, email)
	sent := svc.Outbox.count()

	_, err := client.Register(t.Context(), email, testPassword)
	assertAPIError(t, err, authsdk.ErrEmailInUse)

	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 409, apiErr.StatusCode)
	require.Equal(t, sent, svc.Outbox.count(), "no email for a taken address")
}

// TestRegisterValidation checks the request shape rules and their details.
func TestRegisterValidation(t *testing.T) {
	svc := setupService(t)
	client := authsdk.NewSDKClient(svc.URL)

	tests := []struct {
		name     string
		email    string
		password string
		field    string
	}{
		{"bad email", "not-an-email", testPassword, "email"},
		{"short password", uniqueEmail("short"), "Ab1$", "password"},
		{"no upper case", uniqueEmail("lower"), "sup3r$ecret", "password"},
		{"no special", uniqueEmail("plain"), "Sup3rSecret", "password"},
		{"no digit", uniqueEmail("nodigit"), "Super$ecret", "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Register(t.Context(), tt.email, tt.password)
			assertAPIError(t, err, authsdk.ErrValidation)

			var apiErr *authsdk.APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, 400, apiErr.StatusCode)
			require.Contains(t, apiErr.Details, tt.field)
		})
	}

	require.Zero(t, svc.Outbox.count(), "invalid requests never send email")
}

// TestConfirmValidation rejects codes that are not six digits.
func TestConfirmValidation(t *testing.T) {
	svc := setupService(t)
	client := authsdk.NewSDKClient(svc.URL)

	for _, code := range []string{"", "12345", "1234567", "abcdef"} {
		_, err := client.Confirm(t.Context(), uniqueEmail("code"), code)
		assertAPIError(t, err, authsdk.ErrValidation)
	}
}
