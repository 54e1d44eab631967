package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/cvision/internal/auth/domain"
	httpapi "github.com/aussiebroadwan/cvision/internal/auth/http"
	"github.com/aussiebroadwan/cvision/internal/auth/metrics"
	"github.com/aussiebroadwan/cvision/internal/auth/service"
	"github.com/aussiebroadwan/cvision/pkg/authsdk"
	"github.com/aussiebroadwan/cvision/pkg/httpx"
	"github.com/aussiebroadwan/cvision/pkg/jwtx"
	"github.com/aussiebroadwan/cvision/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

var testAccount = domain.Account{
	ID:        "01J9Z8Y7X6W5V4T3S2R1Q0P9N8",
	Email:     "jane@example.com",
	CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

type fakeRegistrar struct{ err error }

func (f *fakeRegistrar) Register(context.Context, string, string) error { return f.err }

type fakeConfirmer struct{ err error }

func (f *fakeConfirmer) Confirm(_ context.Context, email, _ string) (domain.Account, error) {
	if f.err != nil {
		return domain.Account{}, f.err
	}
	acc := testAccount
	acc.Email = email
	return acc, nil
}

type fakeAuthenticator struct {
	tokens *jwtx.Issuer
	err    error
}

func (f *fakeAuthenticator) Login(_ context.Context, email, _ string) (service.LoginResult, error) {
	if f.err != nil {
		return service.LoginResult{}, f.err
	}
	id := jwtx.Identity{UserID: testAccount.ID, Email: email}
	session, err := f.tokens.Issue(id, jwtx.ClassSession)
	if err != nil {
		return service.LoginResult{}, err
	}
	refresh, err := f.tokens.Issue(id, jwtx.ClassRefresh)
	if err != nil {
		return service.LoginResult{}, err
	}
	return service.LoginResult{Account: testAccount, Session: session, Refresh: refresh}, nil
}

type fakeDeleter struct {
	err     error
	deleted []string
}

func (f *fakeDeleter) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type pinger struct{ err error }

func (p *pinger) Ping(context.Context) error { return p.err }

type fixture struct {
	router   *httpapi.Router
	tokens   *jwtx.Issuer
	clock    *clock
	metrics  *metrics.Metrics
	register *fakeRegistrar
	confirm  *fakeConfirmer
	login    *fakeAuthenticator
	deleter  *fakeDeleter
	cache    *pinger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, nil)
}

// newFixtureWith lets configure adjust the router before routes are mounted.
func newFixtureWith(t *testing.T, configure func(*httpapi.Router)) *fixture {
	t.Helper()

	c := &clock{now: time.Now()}
	tokens, err := jwtx.NewIssuer(jwtx.IssuerOptions{
		Issuer:        "cvision-auth",
		SessionSecret: []byte("session-secret-for-router-tests-0000"),
		RefreshSecret: []byte("refresh-secret-for-router-tests-0000"),
		Now:           c.Now,
	})
	require.NoError(t, err)

	f := &fixture{
		tokens:   tokens,
		clock:    c,
		metrics:  metrics.New(),
		register: &fakeRegistrar{},
		confirm:  &fakeConfirmer{},
		login:    &fakeAuthenticator{tokens: tokens},
		deleter:  &fakeDeleter{},
		cache:    &pinger{},
	}

	r := httpapi.NewRouter(tokens, "test", slogx.Discard())
	r.Auth = &httpapi.AuthHandler{
		Registration: f.register,
		Confirmation: f.confirm,
		Sessions:     f.login,
		Accounts:     f.deleter,
		Cookies:      httpapi.DefaultCookiePolicy(true),
	}
	r.Metrics = f.metrics
	r.Database = &pinger{}
	r.Cache = f.cache
	r.Signer = tokens
	if configure != nil {
		configure(r)
	}
	r.ApplyRoutes()
	f.router = r

	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) authsdk.APIError {
	t.Helper()
	var body authsdk.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegister(t *testing.T) {
	t.Run("sends code", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(jsonRequest(http.MethodPost, "/v1/auth/register",
			`{"email":"jane@example.com","password":"Sup3r$ecret"}`))

		require.Equal(t, http.StatusOK, rec.Code)
		var body authsdk.MessageResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.NotEmpty(t, body.Message)
		require.InDelta(t, 1, testutil.ToFloat64(f.metrics.Registrations.WithLabelValues(metrics.OutcomeOK)), 0)
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(jsonRequest(http.MethodPost, "/v1/auth/register", `{"email":`))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, authsdk.ErrorCodeInvalidRequest, decodeError(t, rec).Code)
	})

	t.Run("validation details", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(jsonRequest(http.MethodPost, "/v1/auth/register",
			`{"email":"nope","password":"short"}`))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		require.Equal(t, authsdk.ErrorCodeValidation, body.Code)
		require.Contains(t, body.Details, "email")
		require.Contains(t, body.Details, "password")
		require.InDelta(t, 1, testutil.ToFloat64(f.metrics.Registrations.WithLabelValues(authsdk.ErrorCodeValidation)), 0)
	})

	errorCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"email in use", service.ErrEmailInUse, http.StatusConflict, authsdk.ErrorCodeEmailInUse},
		{"mail failure", fmt.Errorf("%w: %w", service.ErrNotificationFailed, errors.New("dial tcp")), http.StatusInternalServerError, authsdk.ErrorCodeNotificationFailed},
		{"cache failure", fmt.Errorf("%w: %w", service.ErrCacheUnavailable, errors.New("i/o timeout")), http.StatusInternalServerError, authsdk.ErrorCodeCacheUnavailable},
		{"anything else", errors.New("disk on fire"), http.StatusInternalServerError, authsdk.ErrorCodeServerError},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.register.err = tc.err

			rec := f.do(jsonRequest(http.MethodPost, "/v1/auth/register",
				`{"email":"jane@example.com","password":"Sup3r$ecret"}`))

			require.Equal(t, tc.status, rec.Code)
			body := decodeError(t, rec)
			require.Equal(t, tc.code, body.Code)
			require.NotContains(t, body.Description, "disk on fire", "internal errors stay internal")
			require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("creates account", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(jsonRequest(http.MethodPost, "/v1/auth/validate",
			`{"email":"jane@example.com","code":"123456"}`))

		require.Equal(t, http.StatusCreated, rec.Code)
		var body authsdk.ConfirmResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, testAccount.ID, body.Account.ID)
		require.Equal(t, "jane@example.com", body.Account.Email)
		require.True(t, testAccount.CreatedAt.Equal(body.Account.CreatedAt))
	})

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrCodeExpired, http.StatusBadRequest, authsdk.ErrorCodeCodeExpired},
		{service.ErrIncorrectCode, http.StatusBadRequest, authsdk.ErrorCodeIncorrectCode},
		{service.ErrEmailInUse, http.StatusConflict, authsdk.ErrorCodeEmailInUse},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			f := newFixture(t)
			f.confirm.err = tc.err

			rec := f.do(jsonRequest(http.MethodPost, "/v1/auth/validate",
				`{"email":"jane@example.com","code":"123456"}`))

			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, tc.code, decodeError(t, rec).Code)
			require.InDelta(t, 1, testutil.ToFloat64(f.metrics.Confirmations.WithLabelValues(tc.code)), 0)
		})
	}

	t.Run("code must be six digits", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(jsonRequest(http.MethodPost, "/v1/auth/validate",
			`{"email":"jane@example.com","code":"12a456"}`))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, decodeError(t, rec).Details, "code")
	})
}

func TestLogin(t *testing.T) {
	t.Run("session in body, refresh in cookie", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(jsonRequest(http.MethodPost, "/v1/auth/login",
			`{"email":"jane@example.com","password":"Sup3r$ecret"}`))

		require.Equal(t, http.StatusOK, rec.Code)
		var body authsdk.LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "Bearer", body.TokenType)
		require.Equal(t, 1800, body.ExpiresIn)
		require.NotContains(t, rec.Body.String(), "refresh")

		claims, err := f.tokens.Verify(body.SessionToken, jwtx.ClassSession)
		require.NoError(t, err)
		require.Equal(t, testAccount.ID, claims.UserID)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		c := cookies[0]
		require.Equal(t, httpx.RefreshCookieName, c.Name)
		require.True(t, c.HttpOnly)
		require.True(t, c.Secure)
		require.Equal(t, http.SameSiteNoneMode, c.SameSite)
		require.Equal(t, "/", c.Path)
		require.Equal(t, 30*24*60*60, c.MaxAge)

		_, err = f.tokens.Verify(c.Value, jwtx.ClassRefresh)
		require.NoError(t, err)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		f := newFixture(t)
		f.login.err = service.ErrInvalidCredentials

		rec := f.do(jsonRequest(http.MethodPost, "/v1/auth/login",
			`{"email":"jane@example.com","password":"whatever"}`))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, authsdk.ErrorCodeInvalidCredentials, decodeError(t, rec).Code)
		require.Empty(t, rec.Result().Cookies())
	})

	t.Run("login does not enforce the password policy", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(jsonRequest(http.MethodPost, "/v1/auth/login",
			`{"email":"jane@example.com","password":"weak"}`))

		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestMe(t *testing.T) {
	login := func(t *testing.T, f *fixture) (session, refresh string) {
		t.Helper()
		res, err := f.login.Login(t.Context(), "jane@example.com", "")
		require.NoError(t, err)
		return res.Session.Token, res.Refresh.Token
	}

	meRequest := func(session, refresh string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
		if session != "" {
			req.Header.Set("Authorization", "Bearer "+session)
		}
		if refresh != "" {
			req.AddCookie(&http.Cookie{Name: httpx.RefreshCookieName, Value: refresh})
		}
		return req
	}

	t.Run("valid session token", func(t *testing.T) {
		f := newFixture(t)
		session, _ := login(t, f)

		rec := f.do(meRequest(session, ""))

		require.Equal(t, http.StatusOK, rec.Code)
		var body authsdk.MeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, testAccount.ID, body.ID)
		require.Equal(t, "jane@example.com", body.Email)
		require.Empty(t, rec.Header().Get("Authorization"))
	})

	t.Run("no token", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(meRequest("", ""))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, authsdk.ErrorCodeUnauthorized, decodeError(t, rec).Code)
	})

	t.Run("expired session renewed from refresh cookie", func(t *testing.T) {
		f := newFixture(t)
		session, refresh := login(t, f)
		f.clock.now = f.clock.now.Add(31 * time.Minute)

		rec := f.do(meRequest(session, refresh))

		require.Equal(t, http.StatusOK, rec.Code)
		scheme, renewed, ok := strings.Cut(rec.Header().Get("Authorization"), " ")
		require.True(t, ok)
		require.Equal(t, "Bearer", scheme)
		_, err := f.tokens.Verify(renewed, jwtx.ClassSession)
		require.NoError(t, err)
		require.InDelta(t, 1, testutil.ToFloat64(f.metrics.SessionRenewals.WithLabelValues(httpx.RenewalOK)), 0)
	})

	t.Run("expired session without refresh cookie", func(t *testing.T) {
		f := newFixture(t)
		session, _ := login(t, f)
		f.clock.now = f.clock.now.Add(31 * time.Minute)

		rec := f.do(meRequest(session, ""))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "no refresh token", decodeError(t, rec).Description)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		f := newFixture(t)
		session, refresh := login(t, f)
		f.clock.now = f.clock.now.Add(31 * 24 * time.Hour)

		rec := f.do(meRequest(session, refresh))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "refresh error", decodeError(t, rec).Description)
	})
}

func TestDeleteMe(t *testing.T) {
	t.Run("deletes and clears cookie", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.login.Login(t.Context(), "jane@example.com", "")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodDelete, "/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+res.Session.Token)
		rec := f.do(req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, []string{testAccount.ID}, f.deleter.deleted)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, -1, cookies[0].MaxAge)
	})

	t.Run("already deleted", func(t *testing.T) {
		f := newFixture(t)
		f.deleter.err = service.ErrAccountNotFound
		res, err := f.login.Login(t.Context(), "jane@example.com", "")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodDelete, "/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+res.Session.Token)
		rec := f.do(req)

		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, authsdk.ErrorCodeAccountNotFound, decodeError(t, rec).Code)
	})

	t.Run("requires a token", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(httptest.NewRequest(http.MethodDelete, "/v1/auth/me", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Empty(t, f.deleter.deleted)
	})
}

func TestLogout(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, httpx.RefreshCookieName, cookies[0].Name)
	require.Empty(t, cookies[0].Value)
	require.Equal(t, -1, cookies[0].MaxAge)
	require.True(t, cookies[0].HttpOnly)
}

func TestLivez(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/livez", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var body authsdk.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
	require.Equal(t, "test", body.Version)
}

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body authsdk.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "ok", body.Status)
		require.Equal(t, "ok", body.Checks.Cache)
		require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})

	t.Run("cache down", func(t *testing.T) {
		f := newFixture(t)
		f.cache.err = errors.New("connection refused")

		rec := f.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var body authsdk.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "degraded", body.Status)
		require.Equal(t, "ok", body.Checks.Database)
		require.Equal(t, "error: connection refused", body.Checks.Cache)
	})
}

func TestMetricsRoute(t *testing.T) {
	f := newFixture(t)
	f.do(jsonRequest(http.MethodPost, "/v1/auth/register",
		`{"email":"jane@example.com","password":"Sup3r$ecret"}`))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "cvision_auth_registrations_total")
	require.Contains(t, rec.Body.String(), `route="POST /v1/auth/register"`)
}

func TestRegisterRateLimited(t *testing.T) {
	f := newFixture(t)

	var last *httptest.ResponseRecorder
	for range httpx.StrictLimit.Burst + 1 {
		last = f.do(jsonRequest(http.MethodPost, "/v1/auth/register",
			`{"email":"jane@example.com","password":"Sup3r$ecret"}`))
	}

	require.Equal(t, http.StatusTooManyRequests, last.Code)
	require.NotEmpty(t, last.Header().Get("Retry-After"))
}

func TestValidateRateLimitIgnoresForwardedFor(t *testing.T) {
	f := newFixture(t)
	f.confirm.err = service.ErrIncorrectCode

	limited := 0
	for i := range 100 {
		req := jsonRequest(http.MethodPost, "/v1/auth/validate", `{"email":"jane@example.com","code":"123456"}`)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.%d.%d", i/256, i%256))
		if f.do(req).Code == http.StatusTooManyRequests {
			limited++
		}
	}

	// a token or two may refill while the loop runs
	require.GreaterOrEqual(t, limited, 100-httpx.ModerateLimit.Burst-2)
}

func TestValidateRateLimitBehindTrustedProxy(t *testing.T) {
	proxies, err := httpx.ParseProxyTrust([]string{"192.0.2.0/24"})
	require.NoError(t, err)

	f := newFixtureWith(t, func(r *httpapi.Router) { r.Proxies = proxies })
	f.confirm.err = service.ErrIncorrectCode

	send := func(client string) int {
		req := jsonRequest(http.MethodPost, "/v1/auth/validate", `{"email":"jane@example.com","code":"123456"}`)
		req.RemoteAddr = "192.0.2.10:443"
		req.Header.Set("X-Forwarded-For", client)
		return f.do(req).Code
	}

	for range httpx.ModerateLimit.Burst {
		require.Equal(t, http.StatusBadRequest, send("203.0.113.1"))
	}
	require.Equal(t, http.StatusTooManyRequests, send("203.0.113.1"))
	require.Equal(t, http.StatusBadRequest, send("203.0.113.2"), "another client behind the proxy has its own bucket")
}
