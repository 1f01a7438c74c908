package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// Store persists named collections as JSON array documents inside a single
// data directory. One collection maps to one file, "<name>.json". Reads never
// fail the caller: a missing or unparsable document is reported as an empty
// collection and logged. Writes replace the whole document.
type Store struct {
	dir    string
	logger zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(dir string, logger zerolog.Logger) *Store {
	return &Store{
		dir:    dir,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Dir returns the data directory backing this store.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *Store) collectionLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

// WithLock runs fn while holding the named collection's mutex. Repositories
// wrap their read-modify-write sequences in it so concurrent writers to the
// same collection cannot lose updates.
func (s *Store) WithLock(name string, fn func() error) error {
	l := s.collectionLock(name)
	l.Lock()
	defer l.Unlock()
	return fn()
}

// Read loads the named collection. A missing document is normal before the
// first write; a corrupt one is degraded data that must not break read paths.
// Both cases return an empty slice and emit a warn log so operators can spot
// the corrupt case.
func Read[T any](s *Store, name string) []T {
	raw, err := os.ReadFile(s.path(name))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("collection", name).Msg("collection unreadable, treating as empty")
		}
		return []T{}
	}

	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		s.logger.Warn().Err(err).Str("collection", name).Msg("collection corrupt, treating as empty")
		return []T{}
	}
	if records == nil {
		records = []T{}
	}
	return records
}

// Write replaces the named collection document with the given records,
// creating the data directory on first use. The document is always a JSON
// array, two-space indented.
func Write[T any](s *Store, name string, records []T) error {
	if records == nil {
		records = []T{}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", s.dir, err)
	}

	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal collection %s: %w", name, err)
	}

	if err := os.WriteFile(s.path(name), raw, 0o644); err != nil {
		return fmt.Errorf("write collection %s: %w", name, err)
	}
	return nil
}
