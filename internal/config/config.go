// Package config loads client configuration from environment variables,
// with an optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all client configuration.
type Config struct {
	// Server
	ServerURL      string
	RequestTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Upload limits
	MaxUploadSize int64
	MaxBatchFiles int

	// Session
	SessionPath string
}

// Load reads configuration from the environment with defaults. A .env
// file in the working directory is loaded first if present; real
// environment variables win over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerURL:      envOr("DRIVE_SERVER_URL", "http://localhost:8000"),
		RequestTimeout: envDuration("DRIVE_REQUEST_TIMEOUT", 30*time.Second),
		LogLevel:       envOr("DRIVE_LOG_LEVEL", "info"),
		LogFormat:      envOr("DRIVE_LOG_FORMAT", "console"),
		MaxUploadSize:  envInt64("DRIVE_MAX_UPLOAD_SIZE", 100<<20),
		MaxBatchFiles:  envInt("DRIVE_MAX_BATCH_FILES", 100),
		SessionPath:    envOr("DRIVE_SESSION_PATH", ""),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
