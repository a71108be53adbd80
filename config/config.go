package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the service configuration loaded from the environment
type Config struct {
	// Server
	Port          string
	BasePath      string // no trailing slash, "" serves from the root
	StaticAppPath string // directory holding the front-end bundle and index.html

	// Logging
	LogLevel  string
	LogFormat string

	// Supabase
	SupabaseURL       string
	SupabaseAPIKey    string
	SupabaseSchema    string
	BackendTimeout    time.Duration
	TableProfiles     string
	TableSite         string
	TableSchedule     string
	TableReservations string
	SiteScreen        string

	// Sessions
	SessionsSecret         string
	SessionsName           string
	SessionTTL             time.Duration
	SessionStore           string // memory or redis
	SessionMaxReservations int
	CookieSecure           bool

	// Redis (SESSION_STORE=redis)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Shared read cache for site data and schedule items
	CacheTTL time.Duration

	// CORS
	CORSAllowedOrigins []string // empty allows any origin without credentials

	// Rate Limiting
	RateLimitEnabled bool
	RateLimitAuth    int // requests per minute per client for login/register endpoints
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; variables already set in
// the environment take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		BasePath:      strings.TrimRight(os.Getenv("BASEPATH"), "/"),
		StaticAppPath: getEnv("STATIC_APP_PATH", "./public"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		SupabaseURL:       os.Getenv("SUPABASE_URL"),
		SupabaseAPIKey:    os.Getenv("SUPABASE_API_KEY"),
		SupabaseSchema:    getEnv("SUPABASE_SCHEMA", "public"),
		BackendTimeout:    getEnvSeconds("BACKEND_TIMEOUT", 30),
		TableProfiles:     getEnv("TABLE_PROFILES", "profiles"),
		TableSite:         getEnv("TABLE_SITE", "site_data"),
		TableSchedule:     getEnv("TABLE_SCHEDULE", "schedule_items"),
		TableReservations: getEnv("TABLE_RESERVATIONS", "reservations"),
		SiteScreen:        getEnv("SITE_SCREEN", "home_general"),

		SessionsSecret:         os.Getenv("SESSIONS_SECRET"),
		SessionsName:           getEnv("SESSIONS_NAME", "booking.sid"),
		SessionTTL:             getEnvSeconds("SESSION_TTL", 900),
		SessionStore:           strings.ToLower(getEnv("SESSION_STORE", "memory")),
		SessionMaxReservations: getEnvInt("SESSION_MAX_RESERVATIONS", 100),
		CookieSecure:           getEnvBool("COOKIE_SECURE", false),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		CacheTTL: getEnvSeconds("CACHE_TTL", 60),

		CORSAllowedOrigins: getEnvStringList("CORS_ALLOWED_ORIGINS"),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitAuth:    getEnvInt("RATE_LIMIT_AUTH", 20),
	}

	// Validate required fields
	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseAPIKey == "" {
		return nil, fmt.Errorf("SUPABASE_API_KEY is required")
	}
	if cfg.SessionsSecret == "" {
		return nil, fmt.Errorf("SESSIONS_SECRET is required")
	}

	switch cfg.SessionStore {
	case "memory":
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when SESSION_STORE is redis")
		}
	default:
		return nil, fmt.Errorf("SESSION_STORE must be memory or redis, got %q", cfg.SessionStore)
	}

	if cfg.BasePath != "" && !strings.HasPrefix(cfg.BasePath, "/") {
		return nil, fmt.Errorf("BASEPATH must start with /, got %q", cfg.BasePath)
	}

	// Validate ranges
	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"BACKEND_TIMEOUT", cfg.BackendTimeout},
		{"SESSION_TTL", cfg.SessionTTL},
		{"CACHE_TTL", cfg.CacheTTL},
	} {
		if d.value <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %v", d.name, d.value)
		}
	}
	if cfg.SessionMaxReservations < 1 {
		return nil, fmt.Errorf("SESSION_MAX_RESERVATIONS must be at least 1, got %d", cfg.SessionMaxReservations)
	}
	if cfg.RateLimitAuth < 1 || cfg.RateLimitAuth > 10000 {
		return nil, fmt.Errorf("RATE_LIMIT_AUTH must be between 1 and 10000, got %d", cfg.RateLimitAuth)
	}

	return cfg, nil
}

// CookiePath returns the path the session cookie is scoped to
func (c *Config) CookiePath() string {
	if c.BasePath == "" {
		return "/"
	}
	return c.BasePath
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * time.Second
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvStringList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
