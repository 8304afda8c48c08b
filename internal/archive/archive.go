// Package archive implements a local filesystem store for raw payload
// snapshots, so a bad parse can be replayed without re-fetching.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config captures the parameters for the raw payload archive.
type Config struct {
	// BaseDir is the root directory where snapshots are stored.
	BaseDir string `mapstructure:"base_dir"`
	// MaxBytes bounds a single snapshot; larger payloads are rejected.
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// Store writes raw payloads to the local filesystem.
type Store struct {
	baseDir  string
	maxBytes int64
}

// New creates the archive rooted at cfg.BaseDir.
func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if err := os.MkdirAll(cfg.BaseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 5 * 1024 * 1024
	}
	return &Store{baseDir: cfg.BaseDir, maxBytes: cfg.MaxBytes}, nil
}

// Put writes data under path (e.g. "statsapi/2024-06-01/717465.json") and
// returns a file:// URI.
func (s *Store) Put(ctx context.Context, path string, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path is required")
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("payload size %d exceeds max %d", len(data), s.maxBytes)
	}

	fullPath := filepath.Join(s.baseDir, path)
	cleanBase := filepath.Clean(s.baseDir)
	cleanFull := filepath.Clean(fullPath)
	if !strings.HasPrefix(cleanFull, cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected")
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return "", fmt.Errorf("create parent directories: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o600); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return fmt.Sprintf("file://%s", fullPath), nil
}
