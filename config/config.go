// ABOUTME: Application configuration from .env and environment variables
// ABOUTME: Selects the gateway backend and locates local data under XDG paths
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const (
	// AppName names the XDG data directory and the charm KV database.
	AppName = "ancora"

	BackendREST  = "rest"
	BackendLocal = "local"
)

// Config holds everything needed to build the gateway and stores.
type Config struct {
	Backend string

	// Hosted backend.
	SupabaseURL     string
	SupabaseAnonKey string

	// Local backend and session persistence.
	DBPath    string
	KVPath    string
	CharmHost string

	LogLevel    string
	LogFormat   string
	MetricsAddr string

	// ConfirmEmail makes the local backend hold sign-ups until confirmed.
	ConfirmEmail bool
}

// Load reads an optional .env file from the working directory, then the
// environment. A missing .env is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	dataDir := filepath.Join(xdg.DataHome, AppName)

	cfg := &Config{
		SupabaseURL:     strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseAnonKey: getEnv("SUPABASE_ANON_KEY", ""),
		DBPath:          getEnv("ANCORA_DB_PATH", filepath.Join(dataDir, "ancora.db")),
		KVPath:          getEnv("ANCORA_KV_PATH", filepath.Join(dataDir, "kv")),
		CharmHost:       getEnv("ANCORA_CHARM_HOST", ""),
		LogLevel:        getEnv("ANCORA_LOG_LEVEL", "info"),
		LogFormat:       getEnv("ANCORA_LOG_FORMAT", "console"),
		MetricsAddr:     getEnv("ANCORA_METRICS_ADDR", ""),
		ConfirmEmail:    getEnvBool("ANCORA_CONFIRM_EMAIL", false),
	}

	defaultBackend := BackendLocal
	if cfg.SupabaseURL != "" {
		defaultBackend = BackendREST
	}
	cfg.Backend = strings.ToLower(getEnv("ANCORA_BACKEND", defaultBackend))

	switch cfg.Backend {
	case BackendREST, BackendLocal:
	default:
		return nil, fmt.Errorf("unknown backend %q (want %s or %s)", cfg.Backend, BackendREST, BackendLocal)
	}

	return cfg, nil
}

// Warnings lists non-fatal configuration problems worth logging at startup.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Backend == BackendREST {
		if c.SupabaseURL == "" {
			warnings = append(warnings, "SUPABASE_URL is not set")
		}
		if c.SupabaseAnonKey == "" {
			warnings = append(warnings, "SUPABASE_ANON_KEY is not set")
		}
	}
	return warnings
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
