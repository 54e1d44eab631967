package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/cvision/internal/auth/metrics"
	"github.com/aussiebroadwan/cvision/pkg/httpx"
	"github.com/aussiebroadwan/cvision/pkg/slogx"

	_ "github.com/aussiebroadwan/cvision/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	gate         *httpx.AccessGate

	Auth    *AuthHandler
	Metrics *metrics.Metrics

	Database Pinger
	Cache    Pinger
	Signer   ReadyChecker

	// Proxies whose forwarding headers name the client; nil trusts none.
	Proxies *httpx.ProxyTrust
}

func NewRouter(
	tokens httpx.TokenAuthority,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		gate:         &httpx.AccessGate{Tokens: tokens},
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// ApplyRoutes mounts every route. Auth, Database, Cache and Signer must be
// set; Metrics is optional.
func (r *Router) ApplyRoutes() {
	if r.Metrics != nil {
		r.gate.OnRenewal = r.Metrics.ObserveRenewal
		r.Auth.Metrics = r.Metrics
	}
	r.gate.CookieName = r.Auth.Cookies.Name

	r.registerAuth()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			CVision Account Service API
//	@version		0.1.0
//	@description	Account registration with emailed confirmation codes, password login and HS256 session tokens.
//	@description
//	@description				Session tokens last 30 minutes and travel in the Authorization header. The 30 day refresh token only travels in the HttpOnly refreshToken cookie; protected endpoints use it to renew an expired session token and return the new one in the Authorization response header.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/cvision
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) handle(pattern string, h http.Handler) {
	if r.Metrics != nil {
		h = r.Metrics.Instrument(pattern, h)
	}
	r.Mux.Handle(pattern, h)
}

func (r *Router) registerAuth() {
	h := r.Auth

	// Public endpoints - strict rate limits by IP (mail flooding and password guessing)
	r.handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit, r.Proxies.ClientIP),
		),
	)
	r.handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit, r.Proxies.ClientIP),
		),
	)

	// Confirmation codes are six digits; moderate limit keeps guessing slow
	// while allowing typos.
	r.handle("POST /v1/auth/validate",
		httpx.Chain(http.HandlerFunc(h.HandleValidate),
			httpx.RateLimitByIP(httpx.ModerateLimit, r.Proxies.ClientIP),
		),
	)

	r.handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.LenientLimit, r.Proxies.ClientIP),
		),
	)

	// Protected endpoints - the gate runs first so the limiter sees the user
	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			r.gate.Middleware(),
			httpx.RateLimitByUser(httpx.LenientLimit, r.Proxies.ClientIP),
		)
	}

	r.handle("GET /v1/auth/me", secured(h.HandleMe))
	r.handle("DELETE /v1/auth/me", secured(h.HandleDeleteMe))
}

func (r *Router) registerSystem() {
	// Health check endpoints - public rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit, r.Proxies.ClientIP),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.Database, r.Cache, r.Signer),
			httpx.RateLimitByIP(httpx.PublicLimit, r.Proxies.ClientIP),
		),
	)

	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics.Handler())
	}
}
