package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                    string
	DatabaseURL             string
	JWTSecret               string
	TokenTTL                time.Duration
	DataEncryptionKey       string
	Environment             string
	SeedAdminEmail          string
	SeedAdminPassword       string
	SeedFile                string
	RunMigrations           bool
	RunSeed                 bool
	MigrationsDir           string
	MaxBodyBytes            int64
	RateLimitPerMinute      int
	UploadDir               string
	UploadMaxBytes          int64
	TrustScopeHeaders       bool
	RollupReconcileInterval time.Duration
	EmailFrom               string
	EmailEnabled            bool
	SMTPHost                string
	SMTPPort                int
	SMTPUser                string
	SMTPPassword            string
	SMTPUseTLS              bool
	MetricsEnabled          bool
	WSOriginPatterns        []string
}

// Load reads a local .env file when present and then the process environment.
// Variables already set in the environment win over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("dotenv load failed", "err", err)
	}

	return Config{
		Addr:                    getEnv("APP_ADDR", ":8080"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		TokenTTL:                getEnvDuration("TOKEN_TTL", 12*time.Hour),
		DataEncryptionKey:       getEnv("DATA_ENCRYPTION_KEY", ""),
		Environment:             getEnv("APP_ENV", "development"),
		SeedAdminEmail:          getEnv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword:       getEnv("SEED_ADMIN_PASSWORD", ""),
		SeedFile:                getEnv("SEED_FILE", ""),
		RunMigrations:           getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:                 getEnvBool("RUN_SEED", true),
		MigrationsDir:           getEnv("MIGRATIONS_DIR", "migrations"),
		MaxBodyBytes:            int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:      getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		UploadDir:               getEnv("UPLOAD_DIR", "storage/uploads"),
		UploadMaxBytes:          int64(getEnvInt("UPLOAD_MAX_BYTES", 10*1024*1024)),
		TrustScopeHeaders:       getEnvBool("TRUST_SCOPE_HEADERS", false),
		RollupReconcileInterval: getEnvDuration("ROLLUP_RECONCILE_INTERVAL", 0),
		EmailFrom:               getEnv("EMAIL_FROM", "no-reply@example.com"),
		EmailEnabled:            getEnvBool("EMAIL_ENABLED", false),
		SMTPHost:                getEnv("SMTP_HOST", ""),
		SMTPPort:                getEnvInt("SMTP_PORT", 587),
		SMTPUser:                getEnv("SMTP_USER", ""),
		SMTPPassword:            getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:              getEnvBool("SMTP_USE_TLS", true),
		MetricsEnabled:          getEnvBool("METRICS_ENABLED", true),
		WSOriginPatterns:        getEnvList("WS_ALLOWED_ORIGINS"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping empty entries.
func getEnvList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Environment == "production" {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for chat encryption at rest")
		}
		if c.TrustScopeHeaders {
			return fmt.Errorf("TRUST_SCOPE_HEADERS must be disabled in production")
		}
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.UploadMaxBytes < 1024 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.RollupReconcileInterval < 0 {
		return fmt.Errorf("ROLLUP_RECONCILE_INTERVAL must not be negative")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
