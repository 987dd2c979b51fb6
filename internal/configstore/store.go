package configstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const DefaultConfigPath = "config/config.json"

const (
	loadAttempts   = 3
	renameAttempts = 5
)

// Store is the single gateway to the shared configuration document.
//
// Writes are crash-safe: the document is serialized to a temp file in the
// target directory under an exclusive advisory lock, flushed to durable
// storage, and renamed over the target. Readers take a shared advisory lock,
// so they never observe a partially written document even from another
// process.
type Store struct {
	path string

	// serializes in-process writers; cross-process writers are covered by
	// the advisory lock
	mu sync.Mutex

	retryDelay    time.Duration
	renameBackoff time.Duration
}

func New(path string) *Store {
	p := path
	if p == "" {
		p = DefaultConfigPath
	}
	return &Store{
		path:          p,
		retryDelay:    100 * time.Millisecond,
		renameBackoff: 50 * time.Millisecond,
	}
}

func (s *Store) Path() string {
	return s.path
}

// Load never fails. A missing file yields the built-in defaults; empty
// content, parse errors, and missing required keys are retried a bounded
// number of times (a writer may be mid-flight) before falling back to the
// defaults with a warning.
func (s *Store) Load() Config {
	var lastErr error
	for attempt := 1; attempt <= loadAttempts; attempt++ {
		cfg, err := s.readOnce()
		if err == nil {
			return normalize(cfg)
		}
		if os.IsNotExist(err) {
			return Default()
		}
		lastErr = err
		if attempt < loadAttempts {
			time.Sleep(s.retryDelay)
		}
	}
	fmt.Fprintf(os.Stderr, "warning: config %s unreadable, using defaults: %v\n", s.path, lastErr)
	return Default()
}

func (s *Store) readOnce() (Config, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	if err := lockShared(f); err != nil {
		return Config{}, fmt.Errorf("lock config %s: %w", s.path, err)
	}
	defer unlock(f)

	data, err := os.ReadFile(s.path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return Config{}, fmt.Errorf("config %s is empty", s.path)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", s.path, err)
	}
	if cfg.BaseFolder == "" && cfg.RecordFileName == "" && cfg.URLs == nil {
		return Config{}, fmt.Errorf("config %s is missing required keys", s.path)
	}
	return cfg, nil
}

// Save writes the document with the temp-write/fsync/atomic-rename contract.
// A transiently busy target is retried with increasing backoff; as a last
// resort the document is written in place under the exclusive lock.
func (s *Store) Save(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(normalize(cfg), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory %s: %w", dir, err)
	}

	// The temp file lives next to the target so the rename stays on one
	// filesystem.
	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config for %s: %w", s.path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpPath)
	}

	if err := writeLockedAndSync(tmp, data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp config for %s: %w", s.path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("chmod temp config for %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp config for %s: %w", s.path, err)
	}

	var renameErr error
	for attempt := 0; attempt < renameAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(s.renameBackoff << attempt)
		}
		renameErr = os.Rename(tmpPath, s.path)
		if renameErr == nil {
			return nil
		}
	}
	cleanup()

	if err := s.writeInPlace(data); err != nil {
		return fmt.Errorf("save config %s: rename failed (%v), fallback write failed: %w", s.path, renameErr, err)
	}
	return nil
}

// Update applies fn to the current document and persists the result.
func (s *Store) Update(fn func(*Config)) (Config, error) {
	cfg := s.Load()
	fn(&cfg)
	cfg = normalize(cfg)
	if err := s.Save(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (s *Store) writeInPlace(data []byte) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := writeLockedAndSync(f, data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeLockedAndSync(f *os.File, data []byte) error {
	if err := lockExclusive(f); err != nil {
		return err
	}
	defer unlock(f)
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}
