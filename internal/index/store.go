package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/illarion/pkgdb/internal/logging"
)

const (
	DirPerm  = 0o755
	FilePerm = 0o600 // holds the secret
)

var (
	ErrLocked    = errors.New("index store is locked")
	ErrCreateDir = errors.New("failed to create index directory")
)

// State tells whether the store may write to disk.
type State int

const (
	Unlocked State = iota
	// Locked is entered when an existing index document could not be read
	// or parsed. It is never cleared for the lifetime of the Store.
	Locked
)

func (s State) String() string {
	if s == Locked {
		return "locked"
	}
	return "unlocked"
}

// Document is the persisted index.
type Document struct {
	List   []string `json:"list"`
	Secret string   `json:"secret"`
}

func emptyDocument() Document {
	return Document{List: []string{}, Secret: ""}
}

// Store owns the in-memory index document and its file.
type Store struct {
	mu     sync.RWMutex
	path   string
	doc    Document
	state  State
	logger logging.Logger
}

// Open creates a Store for the document at path and loads it.
func Open(path string, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Store{path: path, logger: logger}
	s.Load()
	return s
}

// Load reads the document from disk, replacing the in-memory copy. A
// missing file yields an empty document; an unreadable or corrupt one
// yields an empty document and locks the store.
func (s *Store) Load() Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = s.load()
	return s.doc.clone()
}

func (s *Store) load() Document {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Trace("index document not found, starting empty", zap.String("path", s.path))
			return emptyDocument()
		}
		s.lock("failed to read index document", err)
		return emptyDocument()
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.lock("failed to parse index document", err)
		return emptyDocument()
	}

	doc.List = dedupe(doc.List)
	s.logger.Trace("index document loaded",
		zap.String("path", s.path),
		zap.Int("packages", len(doc.List)))
	return doc
}

func (s *Store) lock(msg string, err error) {
	s.state = Locked
	s.logger.Error(msg+"; index store locked to protect existing data",
		zap.String("path", s.path),
		zap.Error(err))
}

// Persist writes the current document to disk.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(s.doc)
}

// commit writes next and makes it the in-memory document only if the
// write succeeded.
func (s *Store) commit(next Document) error {
	if err := s.persist(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

func (s *Store) persist(doc Document) error {
	if s.state == Locked {
		s.logger.Error("refusing to write locked index document", zap.String("path", s.path))
		return ErrLocked
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		s.logger.Error("failed to create index directory", zap.String("dir", dir), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrCreateDir, err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode index document: %w", err)
	}

	if err := writeFileAtomic(s.path, data, FilePerm); err != nil {
		s.logger.Error("failed to write index document", zap.String("path", s.path), zap.Error(err))
		return err
	}

	s.logger.Debug("index document written",
		zap.String("path", s.path),
		zap.Int("packages", len(doc.List)))
	return nil
}

// Add appends name if it is not already indexed, then persists. Adding a
// known name is a no-op. On failure the in-memory index is unchanged.
func (s *Store) Add(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.doc.List, name) {
		return nil
	}
	next := s.doc.clone()
	next.List = append(next.List, name)
	return s.commit(next)
}

// Remove drops the first occurrence of name and persists whether or not
// it was present.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.clone()
	if i := slices.Index(next.List, name); i >= 0 {
		next.List = slices.Delete(next.List, i, i+1)
	}
	return s.commit(next)
}

// List returns a copy of the indexed package names in insertion order.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.doc.List)
}

// Contains reports whether name is indexed.
func (s *Store) Contains(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.doc.List, name)
}

// Secret returns the stored secret.
func (s *Store) Secret() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Secret
}

// SetSecret replaces the secret and persists.
func (s *Store) SetSecret(secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.clone()
	next.Secret = secret
	return s.commit(next)
}

// State returns the store's lock state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Locked is shorthand for State() == Locked.
func (s *Store) Locked() bool {
	return s.State() == Locked
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

func (d Document) clone() Document {
	return Document{List: slices.Clone(d.List), Secret: d.Secret}
}

func dedupe(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, name := range list {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
