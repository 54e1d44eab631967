package app

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/cvision/pkg/httpx"
	"github.com/joho/godotenv"
)

type Config struct {
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Sweep interval of the in-memory pending cache (default: 5m)

	Issuer         string // Optional: issuer claim for tokens (default: cvision-auth)
	SessionSecret  string // Optional: HS256 secret for session tokens, ephemeral when empty
	RefreshSecret  string // Optional: HS256 secret for refresh tokens, ephemeral when empty
	PepperFile     string // Optional: path to file containing pepper for password hashing (default: ./pepper)
	DatabaseDriver string // sqlite or postgres (default: sqlite)
	DatabaseFile   string // Optional: path to SQLite database file (default: ./auth.db)
	DatabaseURL    string // Required for postgres
	PendingCache   string // redis or memory (default: memory)
	RedisURL       string // Required for redis

	SMTPHost        string // Optional: when empty codes are logged instead of mailed
	SMTPPort        int    // (default: 587)
	SMTPUsername    string
	SMTPPassword    string
	SMTPFrom        string
	SMTPImplicitTLS bool

	CookieSecure   bool
	CookieSameSite http.SameSite

	TrustedProxies []string // CIDRs or addresses allowed to set X-Forwarded-For (default: none)
}

// Production reports whether ENV names a production deployment.
func (c Config) Production() bool {
	return c.Env == "prod" || c.Env == "production"
}

// LoadConfig reads a .env file from the working directory when present and
// then the environment. Variables already set win over the file.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 5*time.Minute),

		Issuer:         getEnvOrDefault("AUTH_ISSUER", "cvision-auth"),
		SessionSecret:  os.Getenv("JWT_SESSION_SECRET"),
		RefreshSecret:  os.Getenv("JWT_REFRESH_SECRET"),
		PepperFile:     getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		DatabaseDriver: strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", "sqlite")),
		DatabaseFile:   getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		PendingCache:   strings.ToLower(getEnvOrDefault("PENDING_CACHE", "memory")),
		RedisURL:       os.Getenv("REDIS_URL"),

		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPPort:        getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername:    os.Getenv("SMTP_USERNAME"),
		SMTPPassword:    os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:        os.Getenv("SMTP_FROM"),
		SMTPImplicitTLS: getEnvBoolOrDefault("SMTP_IMPLICIT_TLS", false),
	}

	// Cross-site cookies in production, lax same-site elsewhere
	cfg.CookieSecure = getEnvBoolOrDefault("COOKIE_SECURE", cfg.Production())
	defaultSameSite := "lax"
	if cfg.Production() {
		defaultSameSite = "none"
	}
	cfg.CookieSameSite = parseSameSite(getEnvOrDefault("COOKIE_SAMESITE", defaultSameSite))

	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = strings.Split(v, ",")
	}

	return cfg
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	switch c.PendingCache {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis pending cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PENDING_CACHE %q", c.PendingCache))
	}

	if c.SMTPHost != "" && c.SMTPFrom == "" {
		errs = append(errs, errors.New("SMTP_FROM is required when SMTP_HOST is set"))
	}

	if c.SessionSecret != "" && c.SessionSecret == c.RefreshSecret {
		errs = append(errs, errors.New("JWT_SESSION_SECRET and JWT_REFRESH_SECRET must differ"))
	}

	if c.CookieSameSite == http.SameSiteNoneMode && !c.CookieSecure {
		errs = append(errs, errors.New("COOKIE_SAMESITE=none requires COOKIE_SECURE"))
	}

	if _, err := httpx.ParseProxyTrust(c.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %w", err))
	}

	return errors.Join(errs...)
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "none":
		return http.SameSiteNoneMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteLaxMode
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
