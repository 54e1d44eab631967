package auth_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/aussiebroadwan/cvision/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestLoginInvalidCredentialsAreIndistinguishable verifies an unknown email
// and a wrong password produce the same error.
func TestLoginInvalidCredentialsAreIndistinguishable(t *testing.T) {
	svc := setupService(t)
	client := authsdk.NewSDKClient(svc.URL)
	email := uniqueEmail("login")
	registerAccount(t, svc, client, email)

	_, wrongPassword := client.Login(t.Context(), email, "Wr0ng$ecret")
	_, unknownEmail := client.Login(t.Context(), uniqueEmail("nobody"), testPassword)

	assertAPIError(t, wrongPassword, authsdk.ErrInvalidCredentials)
	assertAPIError(t, unknownEmail, authsdk.ErrInvalidCredentials)
	require.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

// TestLoginSetsRefreshCookie checks the cookie attributes and that the
// refresh token never appears in the body.
func TestLoginSetsRefreshCookie(t *testing.T) {
	svc := setupService(t)
	client := authsdk.NewSDKClient(svc.URL)
	email := uniqueEmail("cookie")
	registerAccount(t, svc, client, email)

	session := performLogin(t, client, email, testPassword)

	u, err := url.Parse(svc.URL)
	require.NoError(t, err)

	var refresh *http.Cookie
	for _, c := range client.HTTPClient.Jar.Cookies(u) {
		if c.Name == "refreshToken" {
			refresh = c
		}
	}
	require.NotNil(t, refresh, "login should set the refresh cookie")
	require.NotEmpty(t, refresh.Value)
	require.NotEqual(t, session.SessionToken(), refresh.Value)
}

// TestSessionRenewalFromRefreshCookie verifies the gate mints a new session
// token when the presented one is rejected and the refresh cookie is valid.
func TestSessionRenewalFromRefreshCookie(t *testing.T) {
	svc := setupService(t)
	client := authsdk.NewSDKClient(svc.URL)
	email := uniqueEmail("renew")
	account := registerAccount(t, svc, client, email)
	performLogin(t, client, email, testPassword)

	// same jar, unusable session token
	stale := client.NewSessionFromToken("not-a-valid-token")

	me, err := stale.Me(t.Context())
	require.NoError(t, err, "refresh cookie should renew the session")
	require.Equal(t, account.ID, me.ID)
	require.Equal(t, email, me.Email)

	renewed := stale.SessionToken()
	require.NotEqual(t, "not-a-valid-token", renewed, "renewed token should be adopted")

	// the renewed token works on its own
	fresh := authsdk.NewSDKClient(svc.URL).NewSessionFromToken(renewed)
	me, err = fresh.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, account.ID, me.ID)
}

// TestSessionRejectedWithoutRefreshCookie verifies a bad token alone is 401.
func TestSessionRejectedWithoutRefreshCookie(t *testing.T) {
	svc := setupService(t)
	client := authsdk.NewSDKClient(svc.URL)

	_, err := client.NewSessionFromToken("not-a-valid-token").Me(t.Context())
	assertAPIError(t, err, authsdk.ErrUnauthorized)
}

// TestRefreshTokenIsNotASessionToken verifies the cookie value cannot be
// used as a bearer token.
func TestRefreshTokenIsNotASessionToken(t *testing.T) {
	svc := setupService(t)
	client := authsdk.NewSDKClient(svc.URL)
	email := uniqueEmail("class")
	registerAccount(t, svc, client, email)
	performLogin(t, client, email, testPassword)

	u, err := url.Parse(svc.URL)
	require.NoError(t, err)
	var refresh string
	for _, c := range client.HTTPClient.Jar.Cookies(u) {
		if c.Name == "refreshToken" {
			refresh = c.Value
		}
	}
	require.NotEmpty(t, refresh)

	// fresh client, so no cookie to fall back to
	_, err = authsdk.NewSDKClient(svc.URL).NewSessionFromToken(refresh).Me(t.Context())
	assertAPIError(t, err, authsdk.ErrUnauthorized)
}

// TestLogoutClearsRefreshCookie verifies renewal stops working after logout.
func TestLogoutClearsRefreshCookie(t *testing.T) {
	svc := setupService(t)
	client := authsdk.NewSDKClient(svc.URL)
	email := uniqueEmail("logout")
	registerAccount(t, svc, client, email)
	session := performLogin(t, client, email, testPassword)

	require.NoError(t, client.Logout(t.Context()))

	// session tokens are not revoked
	_, err := session.Me(t.Context())
	require.NoError(t, err)

	// but nothing can be renewed any more
	_, err = client.NewSessionFromToken("not-a-valid-token").Me(t.Context())
	assertAPIError(t, err, authsdk.ErrUnauthorized)
}

// TestDeleteAccount verifies soft deletion frees the email.
func TestDeleteAccount(t *testing.T) {
	svc := setupService(t)
	client := authsdk.NewSDKClient(svc.URL)
	email := uniqueEmail("delete")
	first := registerAccount(t, svc, client, email)
	session := performLogin(t, client, email, testPassword)

	require.NoError(t, session.DeleteAccount(t.Context()))

	// deleting again finds nothing
	err := session.DeleteAccount(t.Context())
	assertAPIError(t, err, authsdk.ErrAccountNotFound)

	_, err = client.Login(t.Context(), email, testPassword)
	assertAPIError(t, err, authsdk.ErrInvalidCredentials)

	second := registerAccount(t, svc, client, email)
	require.NotEqual(t, first.ID, second.ID)
	performLogin(t, client, email, testPassword)
}
