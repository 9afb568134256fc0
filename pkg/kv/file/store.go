// Package file is a kv.Store that keeps one file per key in a directory.
package file

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/closetkit/closet/pkg/kv"
)

// Store writes each key to <dir>/<sha256(key)>.json.
type Store struct {
	dir      string
	maxValue int64
}

var _ kv.Store = (*Store)(nil)

// New creates a Store rooted at dir. If dir is empty, the user cache directory is used.
// maxValueBytes > 0 rejects larger values with kv.ErrQuotaExceeded.
func New(dir string, maxValueBytes int64) (*Store, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &Store{dir: dir, maxValue: maxValueBytes}, nil
}

// Get reads the file for key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

// Set writes value to a temp file and renames it into place.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if s.maxValue > 0 && int64(len(value)) > s.maxValue {
		return &kv.QuotaError{Key: key, Size: int64(len(value)), Limit: s.maxValue}
	}
	tmp, err := os.CreateTemp(s.dir, ".kv-*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Delete removes the file for key.
func (s *Store) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%x.json", sha256.Sum256([]byte(key))))
}

// DefaultDir returns the per-user cache directory for closet.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "closet"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "closet"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "closet", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "closet", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "closet"), nil
	}
}
