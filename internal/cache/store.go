package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"git.home.luguber.info/inful/docshell/internal/logfields"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Store is a directory-backed build cache.
type Store struct {
	mu         sync.Mutex
	dir        string
	persistent bool
}

// Open returns a persistent store rooted at dir, creating it when needed.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache dir is empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	slog.Debug("Using persistent cache", logfields.Path(dir))
	return &Store{dir: dir, persistent: true}, nil
}

// NewEphemeral creates a timestamped store below baseDir (os.TempDir when
// empty). Cleanup removes it.
func NewEphemeral(baseDir string) (*Store, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache base: %w", err)
	}
	dir, err := os.MkdirTemp(baseDir, fmt.Sprintf("docshell-%s-", time.Now().Format("20060102-150405")))
	if err != nil {
		return nil, fmt.Errorf("failed to create ephemeral cache: %w", err)
	}
	slog.Debug("Created ephemeral cache", logfields.Path(dir))
	return &Store{dir: dir}, nil
}

// Dir returns the store root.
func (s *Store) Dir() string { return s.dir }

// Persistent reports whether Cleanup keeps the directory.
func (s *Store) Persistent() bool { return s.persistent }

// Subdir returns name below the store root, creating it.
func (s *Store) Subdir(name string) (string, error) {
	if !keyPattern.MatchString(name) {
		return "", fmt.Errorf("invalid cache subdir %q", name)
	}
	p := filepath.Join(s.dir, name)
	if err := os.MkdirAll(p, 0o750); err != nil {
		return "", fmt.Errorf("failed to create cache subdir: %w", err)
	}
	return p, nil
}

func (s *Store) entryPath(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	return filepath.Join(s.dir, "entries", key+".json"), nil
}

// Get decodes the entry for key into v. It reports false when absent.
func (s *Store) Get(key string, v any) (bool, error) {
	p, err := s.entryPath(key)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read cache entry %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return true, nil
}

// Set stores v under key. The write is atomic.
func (s *Store) Set(key string, v any) error {
	p, err := s.entryPath(key)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return fmt.Errorf("create cache entries dir: %w", err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit cache entry %s: %w", key, err)
	}
	return nil
}

// Remove deletes the entry for key. Missing entries are not an error.
func (s *Store) Remove(key string) error {
	p, err := s.entryPath(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cache entry %s: %w", key, err)
	}
	return nil
}

// Cleanup removes an ephemeral store. Persistent stores are kept.
func (s *Store) Cleanup() error {
	if s.persistent {
		slog.Debug("Skipping cleanup for persistent cache", logfields.Path(s.dir))
		return nil
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to cleanup cache: %w", err)
	}
	slog.Debug("Cleaned up cache", logfields.Path(s.dir))
	return nil
}

// Clear empties the store but keeps its root.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.dir, e.Name())); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
	}
	return nil
}
