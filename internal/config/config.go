package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string
	LogLevel string

	DatabaseURL string
	RedisURL    string

	TokenPepper         string
	SessionTTL          time.Duration
	MaxSessionsPerUser  int
	SessionSweepEvery   time.Duration
	CookieDomain        string
	CookieSecure        bool
	CookieSameSite      string
	CORSAllowedOrigins  []string
	AuthRateLimitPerMin int
	APIRateLimitPerMin  int
	TrustedProxyCIDRs   []string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	BootstrapSuperuserEmail    string
	BootstrapSuperuserUsername string
	BootstrapSuperuserPassword string
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		TokenPepper:         os.Getenv("TOKEN_PEPPER"),
		MaxSessionsPerUser:  getEnvInt("MAX_SESSIONS_PER_USER", 5),
		CookieDomain:        os.Getenv("COOKIE_DOMAIN"),
		CookieSecure:        getEnvBool("COOKIE_SECURE", true),
		CookieSameSite:      strings.ToLower(getEnv("COOKIE_SAMESITE", "lax")),
		CORSAllowedOrigins:  splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		AuthRateLimitPerMin: getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 30),
		APIRateLimitPerMin:  getEnvInt("API_RATE_LIMIT_PER_MIN", 120),
		TrustedProxyCIDRs:   splitCSV(os.Getenv("TRUSTED_PROXY_CIDRS")),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "user-account-assets"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		BootstrapSuperuserEmail:    strings.TrimSpace(strings.ToLower(os.Getenv("BOOTSTRAP_SUPERUSER_EMAIL"))),
		BootstrapSuperuserUsername: strings.TrimSpace(os.Getenv("BOOTSTRAP_SUPERUSER_USERNAME")),
		BootstrapSuperuserPassword: os.Getenv("BOOTSTRAP_SUPERUSER_PASSWORD"),
	}

	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("parse SESSION_TTL: %w", err)
	}
	cfg.SessionTTL = sessionTTL

	sweepEvery, err := time.ParseDuration(getEnv("SESSION_SWEEP_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("parse SESSION_SWEEP_INTERVAL: %w", err)
	}
	cfg.SessionSweepEvery = sweepEvery

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if len(c.TokenPepper) < 16 {
		errs = append(errs, "TOKEN_PEPPER must be at least 16 chars")
	}
	if c.SessionTTL <= 0 || c.SessionTTL > (30*24*time.Hour) {
		errs = append(errs, "SESSION_TTL must be between 1s and 30d")
	}
	if c.MaxSessionsPerUser < 1 {
		errs = append(errs, "MAX_SESSIONS_PER_USER must be >= 1")
	}
	if c.SessionSweepEvery < time.Minute {
		errs = append(errs, "SESSION_SWEEP_INTERVAL must be at least 1m")
	}
	if c.AuthRateLimitPerMin <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
