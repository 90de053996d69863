package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds the application configuration.
type Config struct {
	ServerPort int
	AppEnv     string
	LogLevel   string

	StorageDriver       string // "sqlite" or "postgres"
	DatabasePath        string
	DatabaseURL         string
	DatabaseReplicaURLs []string

	// JWTSecret signs session tokens. When neither JWT_SECRET_KEY nor SECRET_KEY
	// is set a random key is generated and JWTSecretGenerated is true; tokens then
	// do not survive a restart.
	JWTSecret          []byte
	JWTSecretGenerated bool
	TokenTTL           time.Duration
	BcryptCost         int

	RequestTimeout time.Duration
	AllowedOrigins []string

	RedisAddr       string
	LoginRateLimit  int
	LoginRateWindow time.Duration

	OTLPEndpoint string
	ServiceName  string

	// EventRetention of zero disables pruning of the activity log.
	EventRetention     time.Duration
	EventPruneSchedule string
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	ttl, err := getEnvInt("TOKEN_TTL_SECONDS", 120)
	if err != nil {
		return nil, err
	}
	cost, err := getEnvInt("BCRYPT_COST", bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	timeout, err := getEnvInt("REQUEST_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	rateLimit, err := getEnvInt("LOGIN_RATE_LIMIT", 10)
	if err != nil {
		return nil, err
	}
	rateWindow, err := getEnvInt("LOGIN_RATE_WINDOW_SECONDS", 60)
	if err != nil {
		return nil, err
	}

	retentionDays, err := getEnvInt("EVENT_RETENTION_DAYS", 90)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:          port,
		AppEnv:              getEnv("APP_ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		StorageDriver:       strings.ToLower(getEnv("STORAGE_DRIVER", "sqlite")),
		DatabasePath:        getEnv("DATABASE_PATH", "./blog.db"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		DatabaseReplicaURLs: splitList(getEnv("DATABASE_REPLICA_URLS", "")),
		TokenTTL:            time.Duration(ttl) * time.Second,
		BcryptCost:          cost,
		RequestTimeout:      time.Duration(timeout) * time.Second,
		AllowedOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		LoginRateLimit:      rateLimit,
		LoginRateWindow:     time.Duration(rateWindow) * time.Second,
		OTLPEndpoint:        getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:         getEnv("OTEL_SERVICE_NAME", "blog-api"),
		EventRetention:      time.Duration(retentionDays) * 24 * time.Hour,
		EventPruneSchedule:  getEnv("EVENT_PRUNE_SCHEDULE", "@daily"),
	}

	switch cfg.StorageDriver {
	case "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL must be set for postgres storage")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.EventRetention < 0 {
		return nil, fmt.Errorf("EVENT_RETENTION_DAYS must not be negative")
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL_SECONDS must be positive")
	}

	secret := getEnv("JWT_SECRET_KEY", getEnv("SECRET_KEY", ""))
	if secret != "" {
		cfg.JWTSecret = []byte(secret)
	} else {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
		cfg.JWTSecret = key
		cfg.JWTSecretGenerated = true
	}

	return cfg, nil
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
