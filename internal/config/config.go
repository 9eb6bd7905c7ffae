// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Secret wraps a sensitive string to prevent accidental logging.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// minSecretLength is the shortest accepted HS256 signing key.
const minSecretLength = 32

// Database describes how to reach the relational store.
type Database struct {
	Driver     string
	Host       string
	Port       string
	Name       string
	Username   string
	Password   Secret
	Schema     string
	SQLitePath string
}

// DSN returns the connection string for the configured driver.
func (d Database) DSN() string {
	if d.Driver == DriverSQLite {
		return d.SQLitePath
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		d.Host, d.Username, d.Password.Value(), d.Name, d.Port)
	if d.Schema != "" {
		dsn += " search_path=" + d.Schema
	}
	return dsn
}

// Redis holds the optional shared rate limit store settings.
type Redis struct {
	Addr     string
	Password Secret
	DB       int
}

// Config holds all application configuration values.
type Config struct {
	Port           int
	LogLevel       string
	LogFormat      string
	Database       Database
	JWTSecret      Secret
	TokenTTL       time.Duration
	CORSOrigins    []string
	Redis          Redis
	AuthRateLimit  int
	AuthRateWindow time.Duration
}

// Load reads a .env file if present, then environment variables with defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "text"),
		Database: Database{
			Driver:     strings.ToLower(envOrDefault("DB_DRIVER", DriverPostgres)),
			Host:       envOrDefault("BLUEPRINT_DB_HOST", "localhost"),
			Port:       envOrDefault("BLUEPRINT_DB_PORT", "5432"),
			Name:       os.Getenv("BLUEPRINT_DB_DATABASE"),
			Username:   os.Getenv("BLUEPRINT_DB_USERNAME"),
			Password:   Secret(os.Getenv("BLUEPRINT_DB_PASSWORD")),
			Schema:     os.Getenv("BLUEPRINT_DB_SCHEMA"),
			SQLitePath: envOrDefault("SQLITE_PATH", "todo.sqlite"),
		},
		JWTSecret: Secret(os.Getenv("JWT_SECRET")),
		Redis: Redis{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: Secret(os.Getenv("REDIS_PASSWORD")),
		},
	}

	var err error
	if cfg.Port, err = envInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Redis.DB, err = envInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.AuthRateLimit, err = envInt("AUTH_RATE_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = envDuration("TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AuthRateWindow, err = envDuration("AUTH_RATE_WINDOW", time.Minute); err != nil {
		return nil, err
	}

	for _, o := range strings.Split(envOrDefault("CORS_ORIGINS", "https://*,http://*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Name == "" || c.Database.Username == "" {
			return fmt.Errorf("BLUEPRINT_DB_DATABASE and BLUEPRINT_DB_USERNAME are required for the postgres driver")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver)
	}

	if len(c.JWTSecret.Value()) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.AuthRateLimit < 1 {
		return fmt.Errorf("AUTH_RATE_LIMIT must be positive")
	}
	if c.AuthRateWindow <= 0 {
		return fmt.Errorf("AUTH_RATE_WINDOW must be positive")
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}

	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
