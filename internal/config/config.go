// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
)

// Config holds every setting the binaries read at startup.
type Config struct {
	Port string

	// GeminiAPIKey authenticates the advisory client. Empty disables advice.
	GeminiAPIKey string

	SessionSecret string
	SessionTTL    time.Duration

	TransferDelay   time.Duration
	AdvisorTimeout  time.Duration
	TransferWorkers int

	StoreBackend  string
	MongoURI      string
	MongoDatabase string

	LogLevel string
	LogJSON  bool
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Port:            "8080",
		SessionSecret:   "orabank-demo-secret",
		SessionTTL:      12 * time.Hour,
		TransferDelay:   2 * time.Second,
		AdvisorTimeout:  30 * time.Second,
		TransferWorkers: 1,
		StoreBackend:    StoreMemory,
		MongoURI:        "mongodb://localhost:27017",
		MongoDatabase:   "orabank",
		LogLevel:        "info",
	}
}

// Load reads the given .env files (if present) and then the environment.
// With no files, ".env" in the working directory is tried.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("Load: read env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, falling back to Default for unset keys.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	setString(&cfg.Port, getenv("PORT"))
	setString(&cfg.GeminiAPIKey, firstNonEmpty(getenv("GEMINI_API_KEY"), getenv("API_KEY")))
	setString(&cfg.SessionSecret, getenv("SESSION_SECRET"))
	setString(&cfg.StoreBackend, strings.ToLower(getenv("STORE_BACKEND")))
	setString(&cfg.MongoURI, getenv("MONGO_URI"))
	setString(&cfg.MongoDatabase, getenv("MONGO_DATABASE"))
	setString(&cfg.LogLevel, getenv("LOG_LEVEL"))

	var err error
	if cfg.SessionTTL, err = duration(getenv, "SESSION_TTL", cfg.SessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.TransferDelay, err = duration(getenv, "TRANSFER_DELAY", cfg.TransferDelay); err != nil {
		return Config{}, err
	}
	if cfg.AdvisorTimeout, err = duration(getenv, "ADVISOR_TIMEOUT", cfg.AdvisorTimeout); err != nil {
		return Config{}, err
	}

	if v := getenv("TRANSFER_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("FromEnv: TRANSFER_WORKERS: %w", err)
		}
		cfg.TransferWorkers = n
	}

	if v := getenv("LOG_JSON"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("FromEnv: LOG_JSON: %w", err)
		}
		cfg.LogJSON = b
	}

	return cfg, cfg.Validate()
}

// Validate checks values that have no safe fallback.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory, StoreMongo:
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.SessionSecret == "" {
		return errors.New("session secret must not be empty")
	}
	if c.TransferDelay < 0 {
		return errors.New("transfer delay must not be negative")
	}
	if c.TransferWorkers < 1 {
		return errors.New("at least one transfer worker is required")
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func duration(getenv func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("FromEnv: %s: %w", key, err)
	}
	return d, nil
}
