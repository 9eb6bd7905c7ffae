package config

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "test.sqlite")
	t.Setenv("JWT_SECRET", testSecret)
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, time.Minute, cfg.AuthRateWindow)
	assert.Equal(t, 20, cfg.AuthRateLimit)
	assert.Equal(t, []string{"https://*", "http://*"}, cfg.CORSOrigins)
	assert.Equal(t, "test.sqlite", cfg.Database.DSN())
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://app.example.com")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"short secret", "JWT_SECRET", "short"},
		{"bad port", "PORT", "abc"},
		{"port out of range", "PORT", "70000"},
		{"bad driver", "DB_DRIVER", "mysql"},
		{"bad ttl", "TOKEN_TTL", "forever"},
		{"negative ttl", "TOKEN_TTL", "-1h"},
		{"bad log format", "LOG_FORMAT", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestPostgresRequiresCredentials(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("BLUEPRINT_DB_DATABASE", "")
	t.Setenv("BLUEPRINT_DB_USERNAME", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	db := Database{
		Driver:   DriverPostgres,
		Host:     "db",
		Port:     "5432",
		Name:     "todos",
		Username: "app",
		Password: Secret("pw"),
		Schema:   "public",
	}

	assert.Equal(t, "host=db user=app password=pw dbname=todos port=5432 sslmode=disable search_path=public", db.DSN())
}

func TestSecretIsRedacted(t *testing.T) {
	s := Secret("hunter2")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", s))
	assert.Equal(t, "hunter2", s.Value())
}
