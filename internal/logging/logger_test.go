// Package logging includes tests for the zap logger helpers.
package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewDevelopmentLogger confirms the development logger builds and logs.
func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(true)
	if err != nil {
		t.Fatalf("New(true) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("development logger ready")
}

// TestNewProductionLogger ensures the production logger configuration succeeds.
func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(false)
	if err != nil {
		t.Fatalf("New(false) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("production logger ready")
}

func TestNewWithFileCreatesDatedLog(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	day := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	logger, err := NewWithFile(false, dir, day)
	if err != nil {
		t.Fatalf("NewWithFile() error = %v", err)
	}
	logger.Info("collection attempt")
	logger.Sync() //nolint:errcheck // best-effort flush

	path := filepath.Join(dir, "yrfi_2024-06-01.log")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected dated log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("log file is empty")
	}
}
