package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-level settings for the client.
type Config struct {
	BaseURL     string
	WSURL       string
	LogLevel    string
	HTTPTimeout time.Duration
}

const (
	envBaseURL  = "CRMDESK_API_URL"
	envWSURL    = "CRMDESK_WS_URL"
	envLogLevel = "CRMDESK_LOG_LEVEL"
	envTimeout  = "CRMDESK_HTTP_TIMEOUT"

	defaultBaseURL = "http://localhost:8080/api"
	defaultTimeout = 15 * time.Second
)

// Load reads configuration from the environment, with a .env file applied
// first when present. A missing .env is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		BaseURL:     defaultBaseURL,
		LogLevel:    "info",
		HTTPTimeout: defaultTimeout,
	}
	if v := strings.TrimSpace(os.Getenv(envBaseURL)); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv(envWSURL)); v != "" {
		cfg.WSURL = v
	}
	if v := strings.TrimSpace(os.Getenv(envLogLevel)); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(envTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", envTimeout, err)
		}
		cfg.HTTPTimeout = d
	}
	return cfg, nil
}

// DataDir resolves the per-user directory holding the client database and logs.
func DataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = os.Getenv("HOME")
		if base == "" {
			return "", fmt.Errorf("cannot resolve config directory: %w", err)
		}
	}
	dir := filepath.Join(base, "crmdesk")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}
