package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/cvision/pkg/jwtx"
	"github.com/aussiebroadwan/cvision/pkg/slogx"
)

const (
	// RefreshCookieName is the cookie carrying the refresh token.
	RefreshCookieName = "refreshToken"

	// RenewedTokenHeader is the response header a renewed session token is
	// written to, as "Bearer <token>".
	RenewedTokenHeader = "Authorization"
)

// Terminal gate failures. Each maps to a 401 except ErrRenewFailed.
var (
	ErrNoToken        = errors.New("no token")
	ErrNoRefreshToken = errors.New("no refresh token")
	ErrRefreshFailed  = errors.New("refresh error")
	ErrRenewFailed    = errors.New("session renewal failed")
)

// Renewal outcomes reported to AccessGate.OnRenewal.
const (
	RenewalOK             = "renewed"
	RenewalNoRefreshToken = "no_refresh_token"
	RenewalRefreshError   = "refresh_error"
	RenewalIssueError     = "issue_error"
)

// TokenAuthority issues and verifies class-bound tokens. *jwtx.Issuer
// satisfies it.
type TokenAuthority interface {
	Issue(id jwtx.Identity, class jwtx.TokenClass) (jwtx.IssuedToken, error)
	Verify(token string, class jwtx.TokenClass) (jwtx.Claims, error)
}

// GateResult is the outcome of a successful Authenticate call.
type GateResult struct {
	// Claims of the token that authenticated the request. After a renewal
	// these are the refresh token's claims.
	Claims jwtx.Claims

	// Renewed is non-nil when the bearer token was rejected and a new session
	// token was minted from the refresh cookie.
	Renewed *jwtx.IssuedToken
}

// AccessGate authenticates requests with a session token and falls back to
// the refresh cookie once when the session token is rejected.
type AccessGate struct {
	Tokens TokenAuthority

	// CookieName defaults to RefreshCookieName.
	CookieName string

	// OnRenewal, when set, is called once for every fallback attempt.
	OnRenewal func(outcome string)
}

// Authenticate runs the two-step check:
//
//  1. no bearer token: ErrNoToken
//  2. valid session token: its claims
//  3. no refresh cookie: ErrNoRefreshToken
//  4. invalid refresh token: ErrRefreshFailed
//  5. otherwise a new session token is minted for the refresh claims
//
// At most one renewal happens per call and the minted token is not
// re-verified.
func (g *AccessGate) Authenticate(r *http.Request) (GateResult, error) {
	log := slogx.FromContext(r.Context())

	raw, ok := bearerToken(r)
	if !ok {
		return GateResult{}, ErrNoToken
	}

	claims, err := g.Tokens.Verify(raw, jwtx.ClassSession)
	if err == nil {
		return GateResult{Claims: claims}, nil
	}
	log.Debug("session token rejected, trying refresh cookie", "err", err)

	cookie, cerr := r.Cookie(g.cookieName())
	if cerr != nil || cookie.Value == "" {
		g.report(RenewalNoRefreshToken)
		return GateResult{}, ErrNoRefreshToken
	}

	refresh, err := g.Tokens.Verify(cookie.Value, jwtx.ClassRefresh)
	if err != nil {
		g.report(RenewalRefreshError)
		return GateResult{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	issued, err := g.Tokens.Issue(refresh.Identity(), jwtx.ClassSession)
	if err != nil {
		g.report(RenewalIssueError)
		return GateResult{}, fmt.Errorf("%w: %w", ErrRenewFailed, err)
	}
	g.report(RenewalOK)

	return GateResult{Claims: refresh, Renewed: &issued}, nil
}

// Middleware enforces Authenticate on next. A renewed session token is
// written to RenewedTokenHeader before next runs.
func (g *AccessGate) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			res, err := g.Authenticate(r)
			switch {
			case err == nil:
			case errors.Is(err, ErrRenewFailed):
				log.Error("failed to renew session token", "err", err)
				WriteJSON(w, http.StatusInternalServerError, map[string]string{
					"error":             "server_error",
					"error_description": "Could not renew session.",
				})
				return
			default:
				log.Info("request rejected by access gate", "reason", gateReason(err), "err", err)
				writeBearerError(w, gateReason(err))
				return
			}

			if res.Renewed != nil {
				w.Header().Set(RenewedTokenHeader, "Bearer "+res.Renewed.Token)
				log.Info("session token renewed from refresh token", "user_id", res.Claims.UserID)
			}

			ctx = slogx.With(ctx, "user_id", res.Claims.UserID)
			next.ServeHTTP(w, r.WithContext(ContextWithClaims(ctx, res.Claims)))
		})
	}
}

func (g *AccessGate) cookieName() string {
	if g.CookieName != "" {
		return g.CookieName
	}
	return RefreshCookieName
}

func (g *AccessGate) report(outcome string) {
	if g.OnRenewal != nil {
		g.OnRenewal(outcome)
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func gateReason(err error) string {
	switch {
	case errors.Is(err, ErrNoToken):
		return ErrNoToken.Error()
	case errors.Is(err, ErrNoRefreshToken):
		return ErrNoRefreshToken.Error()
	default:
		return ErrRefreshFailed.Error()
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             "unauthorized",
		"error_description": desc,
	})
}
