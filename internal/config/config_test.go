package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Env:                 "test",
		HTTPPort:            "8080",
		DatabaseURL:         "postgres://localhost/app",
		TokenPepper:         "0123456789abcdef",
		SessionTTL:          24 * time.Hour,
		MaxSessionsPerUser:  5,
		SessionSweepEvery:   time.Hour,
		AuthRateLimitPerMin: 30,
		APIRateLimitPerMin:  120,
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"missing database url", func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL"},
		{"short pepper", func(c *Config) { c.TokenPepper = "short" }, "TOKEN_PEPPER"},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }, "SESSION_TTL"},
		{"ttl too long", func(c *Config) { c.SessionTTL = 31 * 24 * time.Hour }, "SESSION_TTL"},
		{"zero max sessions", func(c *Config) { c.MaxSessionsPerUser = 0 }, "MAX_SESSIONS_PER_USER"},
		{"sweep too frequent", func(c *Config) { c.SessionSweepEvery = time.Second }, "SESSION_SWEEP_INTERVAL"},
		{"zero auth rate limit", func(c *Config) { c.AuthRateLimitPerMin = 0 }, "AUTH_RATE_LIMIT_PER_MIN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("expected error mentioning %q, got %v", tc.wantMsg, err)
			}
		})
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/app")
	t.Setenv("TOKEN_PEPPER", "0123456789abcdef")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("default HTTPPort=%q", cfg.HTTPPort)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("default SessionTTL=%v", cfg.SessionTTL)
	}
	if cfg.MaxSessionsPerUser != 5 {
		t.Fatalf("default MaxSessionsPerUser=%d", cfg.MaxSessionsPerUser)
	}
	if cfg.SessionSweepEvery != time.Hour {
		t.Fatalf("default SessionSweepEvery=%v", cfg.SessionSweepEvery)
	}
}

func TestLoadRejectsBadDurations(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/app")
	t.Setenv("TOKEN_PEPPER", "0123456789abcdef")
	t.Setenv("SESSION_TTL", "not-a-duration")

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error for SESSION_TTL")
	}
}
