// Package state holds the small key-value entries that live outside the
// session store: the extraction cursor, the last applied migration marker and
// the pending-session slot.
//
// Keeping these out of the SQLite file means they can be read while the store
// is missing, locked or mid-migration.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/focuslog/focuslog/internal/logging"
)

// Well-known keys.
const (
	// KeyNextSince is the lower bound of the next extraction window (RFC3339Nano).
	KeyNextSince = "next-extraction-since"

	// KeyLastMigration is the last migration number applied to the store.
	KeyLastMigration = "last-applied-migration"

	// KeyPendingSession is the single pending-session slot.
	KeyPendingSession = "pending-session"
)

// Store is a string key-value store. Implementations must treat a missing
// key as ("", false, nil), never as an error.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// document is the on-disk TOML layout.
type document struct {
	Slots map[string]string `toml:"slots"`
}

// FileStore persists entries in a TOML file. Writes replace the file
// atomically. In-process access is serialized; cross-process writers are
// expected to hold the sync lock.
//
// A file that no longer decodes is moved aside to <path>.corrupt-<time> and
// the store continues empty.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger *logging.Logger
	now    func() time.Time
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithLogger sets the logger used to report a discarded state file.
func WithLogger(l *logging.Logger) Option {
	return func(s *FileStore) { s.logger = l }
}

// NewFileStore returns a FileStore backed by path. The file is created on
// first write.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{path: path, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNop(s.logger).WithComponent("state")
	return s
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Get implements Store.
func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := doc.Slots[key]
	return v, ok, nil
}

// Set implements Store.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.Slots[key] = value
	return s.save(doc)
}

// Delete implements Store. Deleting a missing key is a no-op.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Slots[key]; !ok {
		return nil
	}
	delete(doc.Slots, key)
	return s.save(doc)
}

// Keys returns all keys currently stored, sorted.
func (s *FileStore) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(doc.Slots))
	for k := range doc.Slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileStore) load() (*document, error) {
	doc := &document{Slots: make(map[string]string)}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to read state file %s: %w", s.path, err)
	}
	if _, err := toml.Decode(string(data), doc); err != nil {
		return s.quarantine(err)
	}
	if doc.Slots == nil {
		doc.Slots = make(map[string]string)
	}
	return doc, nil
}

// quarantine moves an undecodable state file out of the way and returns an
// empty document in its place.
func (s *FileStore) quarantine(cause error) (*document, error) {
	aside := fmt.Sprintf("%s.corrupt-%s", s.path, s.now().UTC().Format("20060102T150405.000"))
	if err := os.Rename(s.path, aside); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to move corrupt state file %s aside: %w", s.path, err)
	}
	s.logger.Warn("discarded corrupt state file", "path", s.path, "moved_to", aside, "error", cause)
	return &document{Slots: make(map[string]string)}, nil
}

func (s *FileStore) save(doc *document) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if err := toml.NewEncoder(tmp).Encode(doc); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Memory is an in-process Store, used by tests and dry runs.
type Memory struct {
	mu    sync.Mutex
	slots map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{slots: make(map[string]string)}
}

// Get implements Store.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.slots[key]
	return v, ok, nil
}

// Set implements Store.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = value
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, key)
	return nil
}
