package http

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/cvision/internal/auth/domain"
	"github.com/aussiebroadwan/cvision/internal/auth/metrics"
	"github.com/aussiebroadwan/cvision/internal/auth/service"
	"github.com/aussiebroadwan/cvision/pkg/authsdk"
	"github.com/aussiebroadwan/cvision/pkg/httpx"
	"github.com/aussiebroadwan/cvision/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
)

type Registerer interface {
	Register(ctx context.Context, email, password string) error
}

type Confirmer interface {
	Confirm(ctx context.Context, email, code string) (domain.Account, error)
}

type Authenticator interface {
	Login(ctx context.Context, email, password string) (service.LoginResult, error)
}

type AccountDeleter interface {
	Delete(ctx context.Context, id string) error
}

// AuthHandler serves the /v1/auth endpoints.
type AuthHandler struct {
	Registration Registerer
	Confirmation Confirmer
	Sessions     Authenticator
	Accounts     AccountDeleter
	Cookies      CookiePolicy

	// Metrics is optional.
	Metrics *metrics.Metrics
}

func (h *AuthHandler) observe(vec func(*metrics.Metrics) *prometheus.CounterVec, outcome string) {
	if h.Metrics == nil {
		return
	}
	vec(h.Metrics).WithLabelValues(outcome).Inc()
}

func registrations(m *metrics.Metrics) *prometheus.CounterVec { return m.Registrations }
func confirmations(m *metrics.Metrics) *prometheus.CounterVec { return m.Confirmations }
func logins(m *metrics.Metrics) *prometheus.CounterVec        { return m.Logins }

// HandleRegister starts a registration.
//
//	@Summary		Register an account
//	@Description	Emails a six digit confirmation code to the address. The registration is held for 15 minutes; registering again replaces the code.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest	true	"Email and password"
//	@Success		200		{object}	authsdk.MessageResponse	"Validation code sent"
//	@Failure		400		{object}	authsdk.APIError		"Malformed body or validation failed"
//	@Failure		409		{object}	authsdk.APIError		"Email already in use"
//	@Failure		500		{object}	authsdk.APIError		"Email delivery or cache failure"
//	@Router			/v1/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if code, ok := decodeRequest(w, r, &req); !ok {
		h.observe(registrations, code)
		return
	}

	if err := h.Registration.Register(r.Context(), req.Email, req.Password); err != nil {
		h.observe(registrations, writeServiceError(w, r, err))
		return
	}

	h.observe(registrations, metrics.OutcomeOK)
	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "Validation code sent to email"})
}

// HandleValidate confirms a registration.
//
//	@Summary		Confirm a registration
//	@Description	Creates the account when the code matches the pending registration. A wrong code keeps the registration so it can be retried until it expires.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ConfirmRequest	true	"Email and code"
//	@Success		201		{object}	authsdk.ConfirmResponse	"Account created"
//	@Failure		400		{object}	authsdk.APIError		"Validation failed, code expired or incorrect"
//	@Failure		409		{object}	authsdk.APIError		"Email already in use"
//	@Failure		500		{object}	authsdk.APIError		"Internal server error"
//	@Router			/v1/auth/validate [post].
func (h *AuthHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ConfirmRequest
	if code, ok := decodeRequest(w, r, &req); !ok {
		h.observe(confirmations, code)
		return
	}

	account, err := h.Confirmation.Confirm(r.Context(), req.Email, req.Code)
	if err != nil {
		h.observe(confirmations, writeServiceError(w, r, err))
		return
	}

	h.observe(confirmations, metrics.OutcomeOK)
	httpx.WriteJSON(w, http.StatusCreated, authsdk.ConfirmResponse{
		Message: "Account created successfully",
		Account: authsdk.AccountInfo{
			ID:        account.ID,
			Email:     account.Email,
			CreatedAt: account.CreatedAt,
		},
	})
}

// HandleLogin authenticates a user.
//
//	@Summary		Log in
//	@Description	Returns a 30 minute session token in the body and sets a 30 day refresh token in the HttpOnly refreshToken cookie.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Email and password"
//	@Success		200		{object}	authsdk.LoginResponse	"Session token"
//	@Header			200		{string}	Set-Cookie				"refreshToken=...; HttpOnly"
//	@Failure		400		{object}	authsdk.APIError		"Validation failed"
//	@Failure		401		{object}	authsdk.APIError		"Invalid email or password"
//	@Failure		500		{object}	authsdk.APIError		"Internal server error"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if code, ok := decodeRequest(w, r, &req); !ok {
		h.observe(logins, code)
		return
	}

	res, err := h.Sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.observe(logins, writeServiceError(w, r, err))
		return
	}

	http.SetCookie(w, h.Cookies.RefreshCookie(res.Refresh))

	h.observe(logins, metrics.OutcomeOK)
	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		Message:      "Login successful",
		SessionToken: res.Session.Token,
		TokenType:    "Bearer",
		ExpiresIn:    int(res.Session.ExpiresIn.Seconds()),
	})
}

// HandleLogout clears the refresh cookie.
//
//	@Summary		Log out
//	@Description	Expires the refresh token cookie. Tokens already issued stay valid until they expire.
//	@Tags			Auth
//	@Success		204	"Cookie cleared"
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, h.Cookies.ClearCookie())
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the identity of the caller.
//
//	@Summary		Current identity
//	@Description	Returns the claims of the authenticating token. When the session token has expired and the refresh cookie is valid, a new session token is returned in the Authorization response header.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MeResponse	"Identity"
//	@Header			200	{string}	Authorization		"Bearer <renewed session token>, only after a renewal"
//	@Failure		401	{object}	authsdk.APIError	"no token, no refresh token or refresh error"
//	@Router			/v1/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MeResponse{ID: claims.UserID, Email: claims.Email})
}

// HandleDeleteMe soft-deletes the caller's account.
//
//	@Summary		Delete account
//	@Description	Soft-deletes the account and clears the refresh cookie. The email can be registered again.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Success		204	"Account deleted"
//	@Failure		401	{object}	authsdk.APIError	"Unauthorized"
//	@Failure		404	{object}	authsdk.APIError	"Account already deleted"
//	@Router			/v1/auth/me [delete].
func (h *AuthHandler) HandleDeleteMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	if err := h.Accounts.Delete(ctx, claims.UserID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(ctx).Info("account deleted by owner")
	http.SetCookie(w, h.Cookies.ClearCookie())
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
