// Package docstore provides a concurrency-safe store for JSON documents
// backed by flat files under a root data directory. Every document is
// addressed by a relative path, persisted atomically (write to a temp
// sibling, then rename) and guarded by an advisory cross-process lock,
// so readers never observe a half-written file and read-modify-write
// cycles on the same path are serialized.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
)

const (
	lockRetries     = 5
	lockBaseDelay   = 50 * time.Millisecond
	lockDelayFactor = 1.5
	lockMaxDelay    = 200 * time.Millisecond
)

// Store manages JSON documents under a root directory.
type Store struct {
	root   string
	logger zerolog.Logger

	mu    sync.Mutex
	paths map[string]*sync.Mutex
}

// New creates a store rooted at dir. The directory is created on first use.
func New(dir string, logger zerolog.Logger) *Store {
	return &Store{
		root:   dir,
		logger: logger.With().Str("component", "docstore").Logger(),
		paths:  make(map[string]*sync.Mutex),
	}
}

// Root returns the store's root data directory.
func (s *Store) Root() string {
	return s.root
}

// Read loads the document at rel. If the file is absent and def is
// non-nil, def is persisted and returned; if def is nil, nil is returned.
func Read[T any](ctx context.Context, s *Store, rel string, def *T) (*T, error) {
	abs := s.abs(rel)

	var result *T
	err := s.withLock(ctx, rel, func() error {
		cur, err := readCurrent[T](abs)
		if err != nil {
			return err
		}
		if cur == nil && def != nil {
			if err := persist(abs, def); err != nil {
				return err
			}
			cur = def
		}
		result = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Write serializes value and atomically replaces the document at rel,
// holding the path lock for the duration.
func (s *Store) Write(ctx context.Context, rel string, value any) error {
	abs := s.abs(rel)
	return s.withLock(ctx, rel, func() error {
		return persist(abs, value)
	})
}

// Update runs fn on the current document at rel (or def when the file is
// absent) under the path lock, persists the result, and returns it. This
// is the only read-modify-write primitive; callers must not pair an
// unlocked Read with a later Write for the same path. An error from fn
// aborts the cycle without persisting and without leaving the path locked.
func Update[T any](ctx context.Context, s *Store, rel string, def *T, fn func(*T) (*T, error)) (*T, error) {
	abs := s.abs(rel)

	var result *T
	err := s.withLock(ctx, rel, func() error {
		cur, err := readCurrent[T](abs)
		if err != nil {
			return err
		}
		if cur == nil {
			cur = def
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		if err := persist(abs, next); err != nil {
			return err
		}
		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// List returns the file names in the directory at rel, creating the
// directory if it does not exist yet.
func (s *Store) List(rel string) ([]string, error) {
	dir := s.abs(rel)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", rel, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", rel, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func (s *Store) abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// pathMutex returns the in-process mutex for a path. The flock below is
// advisory between processes; within one process the same file handle
// semantics are not reliable across goroutines, so both levels are taken.
func (s *Store) pathMutex(abs string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.paths[abs]
	if !ok {
		m = &sync.Mutex{}
		s.paths[abs] = m
	}
	return m
}

// withLock acquires the in-process and cross-process locks for rel, runs
// fn, and releases both on every exit path.
func (s *Store) withLock(ctx context.Context, rel string, fn func() error) error {
	abs := s.abs(rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", rel, err)
	}

	m := s.pathMutex(abs)
	m.Lock()
	defer m.Unlock()

	fl := flock.New(abs + ".lock")
	if err := s.acquire(ctx, fl, rel); err != nil {
		return err
	}
	defer func() {
		if err := fl.Unlock(); err != nil {
			s.logger.Warn().Err(err).Str("path", rel).Msg("failed to release file lock")
		}
	}()

	return fn()
}

// acquire retries the advisory lock with bounded exponential backoff.
func (s *Store) acquire(ctx context.Context, fl *flock.Flock, rel string) error {
	delay := lockBaseDelay
	for attempt := 0; ; attempt++ {
		ok, err := fl.TryLock()
		if err != nil {
			return fmt.Errorf("failed to lock %s: %w", rel, err)
		}
		if ok {
			return nil
		}
		if attempt >= lockRetries {
			s.logger.Warn().Str("path", rel).Int("attempts", attempt+1).Msg("lock retry budget exhausted")
			return fmt.Errorf("%w: %s", ErrLockTimeout, rel)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * lockDelayFactor)
		if delay > lockMaxDelay {
			delay = lockMaxDelay
		}
	}
}

// readCurrent parses the document at abs, returning nil for a missing or
// empty file. Unparseable JSON is corruption; JSON of the wrong type is a
// shape error, which callers may treat as recoverable.
func readCurrent[T any](abs string) (*T, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", abs, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %s: %v", ErrDocumentShape, filepath.Base(abs), err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptDocument, filepath.Base(abs), err)
	}
	return out, nil
}

// persist writes value to a temp sibling and renames it over abs, so the
// target never observes a partially-written state.
func persist(abs string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}
	tmp := abs + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, abs); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace document: %w", err)
	}
	return nil
}
