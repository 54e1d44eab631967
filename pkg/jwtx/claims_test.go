package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/cvision/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewClaims(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	id := jwtx.Identity{UserID: "01J0000000000000000000000A", Email: "jane@example.com"}

	c := jwtx.NewClaims(id, jwtx.ClassSession, "cvision-auth", 30*time.Minute, now)

	require.Equal(t, "cvision-auth", c.Issuer)
	require.Equal(t, id.UserID, c.Subject)
	require.Equal(t, id.UserID, c.UserID)
	require.Equal(t, id.Email, c.Email)
	require.Equal(t, jwtx.ClassSession, c.Class)
	require.Equal(t, now, c.IssuedAt.Time)
	require.Equal(t, now.Add(30*time.Minute), c.ExpiresAt.Time)
	require.NotEmpty(t, c.ID)
	require.Equal(t, id, c.Identity())
}

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "cvision-auth"}}

	t.Run("matching issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer("cvision-auth"))
	})

	t.Run("empty expected issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer(""))
	})

	t.Run("mismatched issuer", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateIssuer("other-service"), jwtx.ErrIssuer)
	})
}

func TestValidateClass(t *testing.T) {
	c := &jwtx.Claims{Class: jwtx.ClassRefresh}

	require.NoError(t, c.ValidateClass(jwtx.ClassRefresh))
	require.ErrorIs(t, c.ValidateClass(jwtx.ClassSession), jwtx.ErrWrongClass)
	require.ErrorIs(t, (&jwtx.Claims{}).ValidateClass(jwtx.ClassSession), jwtx.ErrWrongClass)
}

func TestValidateSubject(t *testing.T) {
	require.NoError(t, (&jwtx.Claims{UserID: "u1", Email: "a@b.co"}).ValidateSubject())
	require.ErrorIs(t, (&jwtx.Claims{Email: "a@b.co"}).ValidateSubject(), jwtx.ErrInvalidClaim)
	require.ErrorIs(t, (&jwtx.Claims{UserID: "u1"}).ValidateSubject(), jwtx.ErrInvalidClaim)
}

func TestTokenClassValid(t *testing.T) {
	require.True(t, jwtx.ClassSession.Valid())
	require.True(t, jwtx.ClassRefresh.Valid())
	require.False(t, jwtx.TokenClass("access").Valid())
}

func TestNewJTI_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for range 100 {
		jti := jwtx.NewJTI()
		require.NotContains(t, seen, jti)
		seen[jti] = struct{}{}
	}
}
