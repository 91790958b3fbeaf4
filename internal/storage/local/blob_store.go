// Package local writes rendered artifacts under a directory on disk.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned for object paths that escape the base directory.
var ErrPathTraversal = errors.New("path escapes base directory")

// Config captures the parameters for the local blob store.
type Config struct {
	// BaseDir is the root directory for written objects. It is created if
	// missing.
	BaseDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

// BlobStore writes artifacts to the local filesystem.
type BlobStore struct {
	baseDir string
}

// New creates the base directory if needed and checks that it is writable.
func New(cfg Config) (*BlobStore, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat base directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("base directory %s is not a directory", cfg.BaseDir)
	}

	probe, err := os.CreateTemp(cfg.BaseDir, ".writable-*")
	if err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	_ = probe.Close()
	if err := os.Remove(probe.Name()); err != nil {
		return nil, fmt.Errorf("remove probe file: %w", err)
	}

	return &BlobStore{baseDir: filepath.Clean(cfg.BaseDir)}, nil
}

// PutObject writes data to baseDir/path and returns a file:// URI.
func (s *BlobStore) PutObject(_ context.Context, path, _ string, data io.Reader) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path is required")
	}
	fullPath := filepath.Join(s.baseDir, path)
	if !strings.HasPrefix(fullPath, s.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("put %s: %w", path, ErrPathTraversal)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return "", fmt.Errorf("create parent directories: %w", err)
	}

	body, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("read object %s: %w", path, err)
	}
	if err := os.WriteFile(fullPath, body, 0o600); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return "file://" + fullPath, nil
}
