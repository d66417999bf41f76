package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	RootDir       string
	WorkspaceRoot string // empty means discover from RootDir
	DBPath        string
	APIPort       string
	LogLevel      slog.Level
	LogFormat     string

	ResyncWindow         int
	ResyncFullLimitBytes int64

	WatchEnabled  bool
	WatchDebounce time.Duration
	TreeCacheTTL  time.Duration
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or one of its parents, it is loaded first;
// environment variables already set take precedence over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		RootDir:       getEnv("ROOT_DIR", "."),
		WorkspaceRoot: getEnv("WORKSPACE_ROOT", ""),
		DBPath:        getEnv("DB_PATH", "./data/annoloom.db"),
		APIPort:       getEnv("API_PORT", "9000"),
		LogFormat:     strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.ResyncWindow, err = getInt("RESYNC_WINDOW", 40); err != nil {
		return nil, err
	}
	if cfg.ResyncWindow < 1 || cfg.ResyncWindow > 2000 {
		return nil, fmt.Errorf("RESYNC_WINDOW must be between 1 and 2000")
	}

	if cfg.ResyncFullLimitBytes, err = getInt64("RESYNC_FULL_LIMIT_BYTES", 5*1024*1024); err != nil {
		return nil, err
	}
	if cfg.ResyncFullLimitBytes <= 0 {
		return nil, fmt.Errorf("RESYNC_FULL_LIMIT_BYTES must be greater than 0")
	}

	if cfg.WatchEnabled, err = getBool("WATCH_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.WatchDebounce, err = getDuration("WATCH_DEBOUNCE", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.TreeCacheTTL, err = getDuration("TREE_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("ROOT_DIR is invalid: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("ROOT_DIR does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("ROOT_DIR must be a directory")
	}
	cfg.RootDir = absRoot

	// Create the database directory if it doesn't exist
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getInt64(key string, defaultValue int64) (int64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return v, nil
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", raw)
	}
}
