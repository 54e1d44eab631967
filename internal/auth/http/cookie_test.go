package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/aussiebroadwan/cvision/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestDefaultCookiePolicy(t *testing.T) {
	prod := DefaultCookiePolicy(true)
	require.True(t, prod.Secure)
	require.Equal(t, http.SameSiteNoneMode, prod.SameSite)

	dev := DefaultCookiePolicy(false)
	require.False(t, dev.Secure)
	require.Equal(t, http.SameSiteLaxMode, dev.SameSite)
}

func TestCookiePolicy_RefreshCookie(t *testing.T) {
	exp := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	c := CookiePolicy{Domain: "cvision.example"}.RefreshCookie(jwtx.IssuedToken{
		Token:     "tok",
		Class:     jwtx.ClassRefresh,
		ExpiresAt: exp,
		ExpiresIn: jwtx.DefaultRefreshTokenTTL,
	})

	require.Equal(t, "refreshToken", c.Name)
	require.Equal(t, "tok", c.Value)
	require.Equal(t, "/", c.Path)
	require.Equal(t, "cvision.example", c.Domain)
	require.True(t, c.HttpOnly)
	require.Equal(t, 2592000, c.MaxAge)
	require.Equal(t, exp, c.Expires)
}

func TestCookiePolicy_ClearCookie(t *testing.T) {
	c := DefaultCookiePolicy(false).ClearCookie()

	require.Equal(t, "refreshToken", c.Name)
	require.Empty(t, c.Value)
	require.Equal(t, -1, c.MaxAge)
	require.True(t, c.HttpOnly)
}
