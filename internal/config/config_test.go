package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "APP_ENV", "LOG_LEVEL", "STORAGE_DRIVER", "DATABASE_PATH", "DATABASE_URL",
		"DATABASE_REPLICA_URLS", "JWT_SECRET_KEY", "SECRET_KEY", "TOKEN_TTL_SECONDS",
		"BCRYPT_COST", "REQUEST_TIMEOUT_SECONDS", "CORS_ALLOWED_ORIGINS", "REDIS_ADDR",
		"LOGIN_RATE_LIMIT", "LOGIN_RATE_WINDOW_SECONDS", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_SERVICE_NAME", "EVENT_RETENTION_DAYS", "EVENT_PRUNE_SCHEDULE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.StorageDriver)
	assert.Equal(t, 120*time.Second, cfg.TokenTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.True(t, cfg.JWTSecretGenerated)
	assert.Len(t, cfg.JWTSecret, 32)
	assert.Equal(t, 90*24*time.Hour, cfg.EventRetention)
	assert.Equal(t, "@daily", cfg.EventPruneSchedule)
	assert.Equal(t, "blog-api", cfg.ServiceName)
}

func TestLoad_SecretPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", "fallback-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []byte("fallback-secret"), cfg.JWTSecret)
	assert.False(t, cfg.JWTSecretGenerated)

	t.Setenv("JWT_SECRET_KEY", "primary-secret")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, []byte("primary-secret"), cfg.JWTSecret)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_TTL_SECONDS", "300")
	t.Setenv("STORAGE_DRIVER", "POSTGRES")
	t.Setenv("DATABASE_URL", "postgres://blog@localhost/blog")
	t.Setenv("DATABASE_REPLICA_URLS", "postgres://r1, ,postgres://r2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 5*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "postgres", cfg.StorageDriver)
	assert.Equal(t, []string{"postgres://r1", "postgres://r2"}, cfg.DatabaseReplicaURLs)
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"bad port":         {"PORT": "eighty"},
		"unknown driver":   {"STORAGE_DRIVER": "mongo"},
		"postgres no url":  {"STORAGE_DRIVER": "postgres"},
		"non-positive ttl": {"TOKEN_TTL_SECONDS": "0"},
		"bad rate window":  {"LOGIN_RATE_WINDOW_SECONDS": "1m"},
		"negative retain":  {"EVENT_RETENTION_DAYS": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
