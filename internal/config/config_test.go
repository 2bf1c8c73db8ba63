package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerURL != "http://localhost:8000" {
		t.Errorf("unexpected server url %q", cfg.ServerURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("unexpected timeout %v", cfg.RequestTimeout)
	}
	if cfg.MaxUploadSize != 100<<20 {
		t.Errorf("unexpected upload size %d", cfg.MaxUploadSize)
	}
	if cfg.MaxBatchFiles != 100 {
		t.Errorf("unexpected batch limit %d", cfg.MaxBatchFiles)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DRIVE_SERVER_URL", "https://drive.example.com")
	t.Setenv("DRIVE_REQUEST_TIMEOUT", "5s")
	t.Setenv("DRIVE_MAX_BATCH_FILES", "10")
	t.Setenv("DRIVE_LOG_LEVEL", "debug")

	cfg := Load()
	if cfg.ServerURL != "https://drive.example.com" {
		t.Errorf("unexpected server url %q", cfg.ServerURL)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("unexpected timeout %v", cfg.RequestTimeout)
	}
	if cfg.MaxBatchFiles != 10 {
		t.Errorf("unexpected batch limit %d", cfg.MaxBatchFiles)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("unexpected log level %q", cfg.LogLevel)
	}
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("DRIVE_REQUEST_TIMEOUT", "not-a-duration")
	t.Setenv("DRIVE_MAX_BATCH_FILES", "many")

	cfg := Load()
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("bad duration should fall back, got %v", cfg.RequestTimeout)
	}
	if cfg.MaxBatchFiles != 100 {
		t.Errorf("bad int should fall back, got %d", cfg.MaxBatchFiles)
	}
}
