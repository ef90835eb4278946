// Package config provides configuration management for the edge gatekeeper.
// It handles loading configuration from environment variables with sensible
// defaults and validates the configuration so the process starts safely.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//   - UPSTREAM_URL: Application origin the gatekeeper fronts (optional)
//
// Route Classification:
//   - ADMIN_PATH_PREFIX: Admin-area path prefix (default: /admin)
//   - API_PATH_PREFIX: API path prefix (default: /api)
//   - STATIC_PATH_PREFIXES: Comma-separated asset prefixes (default: /_next,/static)
//
// Rate Limiting:
//   - RATE_LIMIT_BACKEND: "redis", "local", or empty for auto (redis when
//     REDIS_ADDRESS is set, otherwise disabled)
//   - RATE_LIMIT_API_MAX: API budget per window (default: 10)
//   - RATE_LIMIT_API_WINDOW: API window (default: 60s)
//   - RATE_LIMIT_GLOBAL_MAX: Global budget per window (default: 60)
//   - RATE_LIMIT_GLOBAL_WINDOW: Global window (default: 60s)
//
// Redis (counter store; absence disables the limiter, it is not an error):
//   - REDIS_ADDRESS, REDIS_PASSWORD, REDIS_DB, REDIS_POOL_SIZE
//
// Admin Gate:
//   - ENFORCE_ADMIN_GATE: Redirect non-admins away from admin paths (default: true)
//   - IDENTITY_SERVICE_URL: Identity service base URL for cookie resolution
//   - IDENTITY_SERVICE_KEY: API key forwarded to the identity service
//   - IDENTITY_JWT_SECRET: When set, session cookies are verified locally
//   - AUTH_COOKIE_NAME: Cookie carrying the access token (default: sb-access-token)
//   - PROFILE_STORE: "postgres", "sqlite", or empty (no role lookups)
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_DB, POSTGRES_USER,
//     POSTGRES_PASSWORD, POSTGRES_SSL_MODE
//   - SQLITE_PATH: SQLite profile database path (default: ./gatekeeper.db)
//
// Misc:
//   - BOT_SIGNATURES_EXTRA: Comma-separated additional bot signatures
//   - TELEMETRY_CHANNEL: Pub/sub channel for deny events (default: gatekeeper:events)
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Limiter backends resolved by Config.LimiterBackend.
const (
	BackendRedis    = "redis"
	BackendLocal    = "local"
	BackendDisabled = "disabled"
)

// Config holds all configuration values for the gatekeeper process.
// Load it with Load() and check it with Validate() before use.
type Config struct {
	// Application settings
	Port        string
	LogLevel    string
	UpstreamURL string

	// Route classification
	AdminPathPrefix    string
	APIPathPrefix      string
	StaticPathPrefixes []string

	// Rate limiting
	RateLimitBackend string
	APIMax           int
	APIWindow        time.Duration
	GlobalMax        int
	GlobalWindow     time.Duration

	// Redis counter store
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int

	// Admin gate
	EnforceAdminGate   bool
	IdentityServiceURL string
	IdentityServiceKey string
	IdentityJWTSecret  string
	AuthCookieName     string

	// Profile store
	ProfileStore     string
	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	PostgresSSLMode  string
	SQLitePath       string

	// Bot detection
	ExtraBotSignatures []string

	// Telemetry
	TelemetryChannel string
}

// Load creates a Config with values from the environment, falling back to
// defaults. It does not validate; call Validate() on the result.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		UpstreamURL: getEnv("UPSTREAM_URL", ""),

		AdminPathPrefix:    getEnv("ADMIN_PATH_PREFIX", "/admin"),
		APIPathPrefix:      getEnv("API_PATH_PREFIX", "/api"),
		StaticPathPrefixes: getListEnv("STATIC_PATH_PREFIXES", []string{"/_next", "/static"}),

		RateLimitBackend: getEnv("RATE_LIMIT_BACKEND", ""),
		APIMax:           getIntEnv("RATE_LIMIT_API_MAX", 10),
		APIWindow:        getDurationEnv("RATE_LIMIT_API_WINDOW", 60*time.Second),
		GlobalMax:        getIntEnv("RATE_LIMIT_GLOBAL_MAX", 60),
		GlobalWindow:     getDurationEnv("RATE_LIMIT_GLOBAL_WINDOW", 60*time.Second),

		RedisAddress:  getEnv("REDIS_ADDRESS", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		RedisPoolSize: getIntEnv("REDIS_POOL_SIZE", 10),

		EnforceAdminGate:   getBoolEnv("ENFORCE_ADMIN_GATE", true),
		IdentityServiceURL: getEnv("IDENTITY_SERVICE_URL", ""),
		IdentityServiceKey: getEnv("IDENTITY_SERVICE_KEY", ""),
		IdentityJWTSecret:  getEnv("IDENTITY_JWT_SECRET", ""),
		AuthCookieName:     getEnv("AUTH_COOKIE_NAME", "sb-access-token"),

		ProfileStore:     getEnv("PROFILE_STORE", ""),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresDB:       getEnv("POSTGRES_DB", "gatekeeper"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresSSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),
		SQLitePath:       getEnv("SQLITE_PATH", "./gatekeeper.db"),

		ExtraBotSignatures: getListEnv("BOT_SIGNATURES_EXTRA", nil),

		TelemetryChannel: getEnv("TELEMETRY_CHANNEL", "gatekeeper:events"),
	}
}

// LimiterBackend resolves the effective rate limiter backend. A redis backend
// without a configured address degrades to disabled rather than erroring, so
// a missing store is an observable mode, not a crash.
func (c *Config) LimiterBackend() string {
	switch c.RateLimitBackend {
	case BackendLocal:
		return BackendLocal
	case BackendRedis, "":
		if c.RedisAddress != "" {
			return BackendRedis
		}
		return BackendDisabled
	default:
		return BackendDisabled
	}
}

// Validate checks required fields, formats, and cross-field dependencies.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	if !strings.HasPrefix(c.AdminPathPrefix, "/") {
		return fmt.Errorf("ADMIN_PATH_PREFIX must start with '/'")
	}
	if !strings.HasPrefix(c.APIPathPrefix, "/") {
		return fmt.Errorf("API_PATH_PREFIX must start with '/'")
	}
	for _, p := range c.StaticPathPrefixes {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("STATIC_PATH_PREFIXES entries must start with '/', got %q", p)
		}
	}

	switch c.RateLimitBackend {
	case "", BackendRedis, BackendLocal:
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND must be 'redis' or 'local'")
	}

	if c.APIMax < 1 {
		return fmt.Errorf("RATE_LIMIT_API_MAX must be a positive number")
	}
	if c.GlobalMax < 1 {
		return fmt.Errorf("RATE_LIMIT_GLOBAL_MAX must be a positive number")
	}
	if c.APIWindow <= 0 || c.GlobalWindow <= 0 {
		return fmt.Errorf("rate limit windows must be positive durations")
	}

	if c.RedisAddress != "" {
		if c.RedisDB < 0 || c.RedisDB > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if c.RedisPoolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	}

	switch c.ProfileStore {
	case "", "sqlite", "postgres", "postgresql":
	default:
		return fmt.Errorf("PROFILE_STORE must be 'postgres' or 'sqlite'")
	}

	if c.ProfileStore == "postgres" || c.ProfileStore == "postgresql" {
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required when using the postgres profile store")
		}
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required when using the postgres profile store")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required when using the postgres profile store")
		}
		if port, err := strconv.Atoi(c.PostgresPort); err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("POSTGRES_PORT must be a valid port number")
		}
	}

	if c.IdentityJWTSecret != "" && len(c.IdentityJWTSecret) < 32 {
		return fmt.Errorf("IDENTITY_JWT_SECRET must be at least 32 characters long for security")
	}

	return nil
}

// getEnv retrieves an environment variable or returns the default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv retrieves a boolean environment variable, accepting the usual
// strconv.ParseBool spellings; anything else yields the default.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getIntEnv retrieves an integer environment variable or returns the default.
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv retrieves a duration environment variable (e.g. "60s", "1m")
// or returns the default.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getListEnv retrieves a comma-separated environment variable as a slice,
// trimming whitespace and dropping empty entries.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
