package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		DatabaseURL:        "postgres://localhost/pms",
		JWTSecret:          "test-secret",
		TokenTTL:           time.Hour,
		Environment:        "development",
		MaxBodyBytes:       1048576,
		UploadMaxBytes:     1048576,
		RateLimitPerMinute: 60,
	}
}

func TestValidateAcceptsDevelopmentDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRequiresDatabaseAndSecret(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = " "
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}

	cfg = validConfig()
	cfg.JWTSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing JWT_SECRET")
	}
}

func TestValidateProductionRules(t *testing.T) {
	cfg := validConfig()
	cfg.Environment = "production"
	cfg.JWTSecret = "short"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected short secret to be rejected in production")
	}

	cfg.JWTSecret = "0123456789abcdef0123456789abcdef"
	cfg.DataEncryptionKey = "0123456789abcdef0123456789abcdef"
	cfg.TrustScopeHeaders = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected trusted scope headers to be rejected in production")
	}

	cfg.TrustScopeHeaders = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected production config to validate, got %v", err)
	}
}

func TestGetEnvHelpersFallBack(t *testing.T) {
	t.Setenv("PMS_TEST_INT", "not-a-number")
	if got := getEnvInt("PMS_TEST_INT", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
	t.Setenv("PMS_TEST_DURATION", "90s")
	if got := getEnvDuration("PMS_TEST_DURATION", time.Second); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
	t.Setenv("PMS_TEST_BOOL", "true")
	if !getEnvBool("PMS_TEST_BOOL", false) {
		t.Fatal("expected true")
	}
}

func TestGetEnvListSplitsOrigins(t *testing.T) {
	t.Setenv("PMS_TEST_ORIGINS", " app.example.gov , ,localhost:5173")
	got := getEnvList("PMS_TEST_ORIGINS")
	if len(got) != 2 || got[0] != "app.example.gov" || got[1] != "localhost:5173" {
		t.Fatalf("unexpected origins %v", got)
	}
	t.Setenv("PMS_TEST_ORIGINS", "")
	if got := getEnvList("PMS_TEST_ORIGINS"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
