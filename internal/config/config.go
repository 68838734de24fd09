// Package config reads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// File store backends.
const (
	FileStoreSQLite = "sqlite"
	FileStoreS3     = "s3"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port             string
	DatabasePath     string
	JWTSecret        string
	CookieSecure     bool
	BcryptCost       int
	LogLevel         slog.Level
	EditorSessionTTL time.Duration

	FileStore         string
	S3Bucket          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string

	// DesignAPIURL, when set, points the photo editor at a remote design API
	// instead of the local database.
	DesignAPIURL   string
	DesignAPIToken string

	// AdminEmails are promoted to admin at startup once registered.
	AdminEmails []string
}

// Load reads a .env file from the working directory if one exists, then
// parses the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse(os.Getenv)
}

// Parse builds a Config from getenv, applying defaults for unset values.
func Parse(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:         env("PORT", "8080"),
		DatabasePath: env("DATABASE_PATH", "design-gallery.db"),
		JWTSecret:    getenv("JWT_SECRET"),
		// Secure cookies unless explicitly disabled for local development.
		CookieSecure:      env("COOKIE_SECURE", "true") != "false",
		FileStore:         env("FILE_STORE", FileStoreSQLite),
		S3Bucket:          env("S3_BUCKET", ""),
		S3Endpoint:        env("S3_ENDPOINT", ""),
		S3AccessKeyID:     env("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: env("S3_SECRET_ACCESS_KEY", ""),
		S3Region:          env("S3_REGION", "auto"),
		DesignAPIURL:      env("DESIGN_API_URL", ""),
		DesignAPIToken:    env("DESIGN_API_TOKEN", ""),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security")
	}

	cost, err := strconv.Atoi(env("BCRYPT_COST", "12"))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	if cost < 4 || cost > 14 {
		return nil, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", cost)
	}
	cfg.BcryptCost = cost

	if err := cfg.LogLevel.UnmarshalText([]byte(env("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	ttl, err := time.ParseDuration(env("EDITOR_SESSION_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid EDITOR_SESSION_TTL: %w", err)
	}
	if ttl < time.Minute {
		return nil, fmt.Errorf("EDITOR_SESSION_TTL must be at least 1m, got %s", ttl)
	}
	cfg.EditorSessionTTL = ttl

	for _, email := range strings.Split(getenv("ADMIN_EMAILS"), ",") {
		if email = strings.TrimSpace(email); email != "" {
			cfg.AdminEmails = append(cfg.AdminEmails, email)
		}
	}

	switch cfg.FileStore {
	case FileStoreSQLite:
	case FileStoreS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("S3_BUCKET is required when FILE_STORE=s3")
		}
		if (cfg.S3AccessKeyID == "") != (cfg.S3SecretAccessKey == "") {
			return nil, errors.New("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
		}
	default:
		return nil, fmt.Errorf("FILE_STORE must be %q or %q, got %q", FileStoreSQLite, FileStoreS3, cfg.FileStore)
	}

	return cfg, nil
}

// SweepInterval is how often idle editor sessions are collected.
func (c *Config) SweepInterval() time.Duration {
	return max(c.EditorSessionTTL/4, 15*time.Second)
}
