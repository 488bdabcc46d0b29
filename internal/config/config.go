// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/j-veylop/codepulse/internal/activity"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath      string
	SpoolPath         string
	StatePath         string
	LanguagesPath     string
	LogPath           string
	LogLevel          string
	User              string
	Timezone          string
	Location          *time.Location
	Estimator         activity.Params
	HeartbeatInterval time.Duration
	StatsCacheTTL     time.Duration
	Notifications     bool
}

// Default values
const (
	defaultHeartbeatInterval = 2 * time.Minute
	defaultStatsCacheTTL     = time.Minute
	defaultUser              = "local"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	dataDir := getDefaultDataDir()

	cfg := &Config{
		DatabasePath:  getEnvString("DATABASE_PATH", filepath.Join(dataDir, "pulse.db")),
		SpoolPath:     getEnvString("SPOOL_PATH", filepath.Join(dataDir, "spool", "heartbeats.jsonl")),
		StatePath:     getEnvString("STATE_PATH", filepath.Join(dataDir, "throttle.json")),
		LanguagesPath: getEnvString("LANGUAGES_PATH", ""),
		LogPath:       getEnvString("LOG_PATH", ""),
		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		User:          getEnvString("PULSE_USER", getDefaultUser()),
		Timezone:      getEnvString("PULSE_TIMEZONE", getEnvString("TZ", "UTC")),
		Estimator: activity.Params{
			HeartbeatCredit:  getEnvDuration("HEARTBEAT_CREDIT", activity.DefaultHeartbeatCredit),
			SessionGap:       getEnvDuration("SESSION_GAP", activity.DefaultSessionGap),
			MaxHeartbeatDiff: getEnvDuration("MAX_HEARTBEAT_DIFF", activity.DefaultMaxHeartbeatDiff),
		},
		HeartbeatInterval: getEnvDuration("HEARTBEAT_INTERVAL", defaultHeartbeatInterval),
		StatsCacheTTL:     getEnvDuration("STATS_CACHE_TTL", defaultStatsCacheTTL),
		Notifications:     getEnvBool("NOTIFICATIONS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Ensure data directories exist
	for _, dir := range []string{
		filepath.Dir(cfg.DatabasePath),
		filepath.Dir(cfg.SpoolPath),
		filepath.Dir(cfg.StatePath),
	} {
		if err := ensureDir(dir); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks the timezone and estimator settings and resolves Location.
func (c *Config) Validate() error {
	loc, err := activity.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid PULSE_TIMEZONE: %w", err)
	}
	c.Location = loc

	if c.Estimator.HeartbeatCredit <= 0 || c.Estimator.SessionGap <= 0 || c.Estimator.MaxHeartbeatDiff <= 0 {
		return fmt.Errorf("HEARTBEAT_CREDIT, SESSION_GAP and MAX_HEARTBEAT_DIFF must be positive")
	}
	if c.Estimator.MaxHeartbeatDiff > c.Estimator.SessionGap {
		return fmt.Errorf("MAX_HEARTBEAT_DIFF (%v) must not exceed SESSION_GAP (%v)",
			c.Estimator.MaxHeartbeatDiff, c.Estimator.SessionGap)
	}
	if strings.TrimSpace(c.User) == "" {
		c.User = defaultUser
	}
	return nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "codepulse", ".env"),
			filepath.Join(home, ".codepulse", ".env"),
		)
	}

	return paths
}

// getDefaultDataDir returns the directory holding the database and spool.
func getDefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".codepulse"
	}
	return filepath.Join(home, ".config", "codepulse")
}

// getDefaultUser returns the login name, or "local" when unknown.
func getDefaultUser() string {
	for _, key := range []string{"USER", "USERNAME"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return defaultUser
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
