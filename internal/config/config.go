package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server Configuration
	Server ServerConfig

	// Database Configuration
	Database DatabaseConfig

	// Session Configuration
	Session SessionConfig

	// Logging Configuration
	Logging LoggingConfig
}

// ServerConfig holds HTTP listener configuration
type ServerConfig struct {
	Port                   string
	CORSOrigins            []string
	AllowAdminRegistration bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// SessionConfig holds login session configuration
type SessionConfig struct {
	JWTSecret     string // Empty means use the secret persisted in the database
	TTL           time.Duration
	SweepSchedule string // cron expression for removing expired sessions
	CookieSecure  bool
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	ttl := 24 * time.Hour
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL %q: %w", raw, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("invalid SESSION_TTL %q: must be positive", raw)
		}
		ttl = parsed
	}

	cookieSecure, err := envBool("COOKIE_SECURE", false)
	if err != nil {
		return nil, err
	}
	allowAdmin, err := envBool("ALLOW_ADMIN_REGISTRATION", false)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Port:                   envOr("PORT", "8080"),
			CORSOrigins:            splitList(envOr("CORS_ORIGINS", "http://localhost:5173")),
			AllowAdminRegistration: allowAdmin,
		},
		Database: DatabaseConfig{
			URL: envOr("DATABASE_URL", "skillportal.sqlite"),
		},
		Session: SessionConfig{
			JWTSecret:     os.Getenv("JWT_SECRET"),
			TTL:           ttl,
			SweepSchedule: envOr("SESSION_SWEEP_SCHEDULE", "@every 15m"),
			CookieSecure:  cookieSecure,
		},
		Logging: LoggingConfig{
			Level:  envOr("LOG_LEVEL", "info"),
			Format: envOr("LOG_FORMAT", "json"),
		},
	}, nil
}

// Addr returns the listen address for the configured port
func (c ServerConfig) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
