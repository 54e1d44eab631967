package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/cvision/internal/auth/http"
	"github.com/aussiebroadwan/cvision/internal/auth/metrics"
	"github.com/aussiebroadwan/cvision/internal/auth/notify"
	"github.com/aussiebroadwan/cvision/internal/auth/pending"
	"github.com/aussiebroadwan/cvision/internal/auth/service"
	"github.com/aussiebroadwan/cvision/internal/auth/store"
	"github.com/aussiebroadwan/cvision/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/cvision/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/cvision/pkg/cryptox"
	"github.com/aussiebroadwan/cvision/pkg/httpx"
	"github.com/aussiebroadwan/cvision/pkg/jwtx"
	"github.com/aussiebroadwan/cvision/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Option customises an Application before it is wired.
type Option func(*Application)

// WithNotifier replaces the notifier chosen from the SMTP settings.
func WithNotifier(n notify.Notifier) Option {
	return func(app *Application) { app.notifier = n }
}

// WithLogger replaces the logger built from the log settings.
func WithLogger(l *slog.Logger) Option {
	return func(app *Application) { app.logger = l }
}

// WithPasswordHasher replaces the Argon2id hasher built from the pepper file.
func WithPasswordHasher(h service.PasswordHasher) Option {
	return func(app *Application) { app.hasher = h }
}

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	cache    pending.Cache
	notifier notify.Notifier
	hasher   service.PasswordHasher
	tokens   *jwtx.Issuer
	metrics  *metrics.Metrics

	// Services
	registrationService *service.RegistrationService
	confirmationService *service.ConfirmationService
	sessionService      *service.SessionService
	accountService      *service.AccountService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config, opts ...Option) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{cfg: cfg}
	for _, opt := range opts {
		opt(app)
	}

	if app.logger == nil {
		app.logger = slogx.New(slogx.Config{
			Service: "cvision-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		})
	}

	ctx := context.Background()

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initCache(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initCrypto(); err != nil {
		app.closeBackends()
		return nil, err
	}

	app.initNotifier()
	app.initServices()
	if err := app.initHTTP(); err != nil {
		app.closeBackends()
		return nil, err
	}

	return app, nil
}

// Handler returns the fully wired router.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeBackends(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// Close releases the database and cache without touching the HTTP server.
// Used when the router is served by something other than Run.
func (app *Application) Close() error {
	return app.closeBackends()
}

func (app *Application) closeBackends() error {
	var errs []error
	if c, ok := app.cache.(io.Closer); ok {
		if err := c.Close(); err != nil {
			app.logger.Error("error closing pending cache", "error", err)
			errs = append(errs, err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.DatabaseDriver {
	case "postgres":
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		host := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err = sqlite.NewStore(host)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initCache connects the pending registration cache. A redis cache that does
// not answer PING fails startup.
func (app *Application) initCache(ctx context.Context) error {
	switch app.cfg.PendingCache {
	case "redis":
		rc, err := pending.NewRedisCache(app.cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rc.Ping(pingCtx); err != nil {
			_ = rc.Close()
			return fmt.Errorf("redis connection failed: %w", err)
		}

		app.cache = rc
		app.logger.Info("redis connection established")
	default:
		app.cache = pending.NewMemoryCache(nil)
		app.logger.Warn("using in-memory pending registration cache, registrations in flight are lost on restart")
	}
	return nil
}

// initCrypto loads the pepper and builds the token issuer. Missing JWT
// secrets are replaced with random ones that only live as long as the
// process.
func (app *Application) initCrypto() error {
	if app.hasher == nil {
		pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
		if err != nil {
			return fmt.Errorf("failed to load pepper: %w", err)
		}
		app.hasher = cryptox.NewPasswordHasher(pepper)
	}

	sessionSecret, err := app.secretOrEphemeral("JWT_SESSION_SECRET", app.cfg.SessionSecret)
	if err != nil {
		return err
	}
	refreshSecret, err := app.secretOrEphemeral("JWT_REFRESH_SECRET", app.cfg.RefreshSecret)
	if err != nil {
		return err
	}

	tokens, err := jwtx.NewIssuer(jwtx.IssuerOptions{
		Issuer:        app.cfg.Issuer,
		SessionSecret: sessionSecret,
		RefreshSecret: refreshSecret,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token issuer: %w", err)
	}
	app.tokens = tokens

	return nil
}

func (app *Application) secretOrEphemeral(name, configured string) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}

	secret, err := cryptox.GenerateToken(cryptox.TokenSize512)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", name, err)
	}
	app.logger.Warn("no secret configured, generated an ephemeral one; tokens will not survive a restart", "secret", name)
	return []byte(secret), nil
}

func (app *Application) initNotifier() {
	switch {
	case app.notifier != nil:
	case app.cfg.SMTPHost != "":
		app.notifier = notify.SMTPNotifier{Config: notify.SMTPConfig{
			Host:        app.cfg.SMTPHost,
			Port:        app.cfg.SMTPPort,
			Username:    app.cfg.SMTPUsername,
			Password:    app.cfg.SMTPPassword,
			From:        app.cfg.SMTPFrom,
			ImplicitTLS: app.cfg.SMTPImplicitTLS,
		}}
		app.logger.Info("smtp notifier configured", "host", app.cfg.SMTPHost, "port", app.cfg.SMTPPort)
	default:
		app.notifier = notify.LogNotifier{Logger: app.logger}
		app.logger.Warn("SMTP_HOST not set, verification emails are logged and not delivered")
	}
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	accounts := app.db.Accounts()

	app.registrationService = &service.RegistrationService{
		Accounts: accounts,
		Pending:  app.cache,
		Hasher:   app.hasher,
		Notifier: app.notifier,
	}
	app.confirmationService = &service.ConfirmationService{
		Accounts: accounts,
		Pending:  app.cache,
	}
	app.sessionService = &service.SessionService{
		Accounts: accounts,
		Hasher:   app.hasher,
		Tokens:   app.tokens,
	}
	app.accountService = &service.AccountService{Accounts: accounts}

	// Redis expires keys itself, only the in-memory cache needs sweeping
	sweepers := map[string]service.Sweeper{}
	if mc, ok := app.cache.(*pending.MemoryCache); ok {
		sweepers["pending_registrations"] = mc
	}
	app.housekeepingService = service.NewHousekeepingService(
		sweepers,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	proxies, err := httpx.ParseProxyTrust(app.cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}

	app.metrics = metrics.New()

	router := httpapi.NewRouter(app.tokens, BuildVersion, app.logger)

	router.Auth = &httpapi.AuthHandler{
		Registration: app.registrationService,
		Confirmation: app.confirmationService,
		Sessions:     app.sessionService,
		Accounts:     app.accountService,
		Cookies: httpapi.CookiePolicy{
			Path:     "/",
			Secure:   app.cfg.CookieSecure,
			SameSite: app.cfg.CookieSameSite,
		},
	}
	router.Metrics = app.metrics
	router.Database = app.db
	router.Cache = app.cache
	router.Signer = app.tokens
	router.Proxies = proxies
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
