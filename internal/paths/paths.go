// Package paths turns storage configuration into filesystem locations:
// the index document, the storage roots, and each package's directory.
package paths

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/illarion/pkgdb/internal/config"
)

const (
	// IndexFile is the current index document name.
	IndexFile = ".verdaccio-db.json"
	// LegacyIndexFile is preferred when it already exists so upgrades keep their data.
	LegacyIndexFile = ".sinopia-db.json"
)

var ErrStorageNotConfigured = errors.New("default storage root is not configured")

// OverrideLookup resolves the override storage root configured for a package.
type OverrideLookup interface {
	StorageFor(name string) (string, bool)
}

// StorageLister is implemented by lookups that can enumerate their storage roots.
type StorageLister interface {
	StorageNames() []string
}

// Root is one storage directory scanned by search.
type Root struct {
	Name    string // as configured
	Path    string // absolute
	Default bool
}

// Resolver computes paths from a default storage root, the base path the
// configuration was loaded from, and per-package overrides.
type Resolver struct {
	storage   string
	base      string
	overrides OverrideLookup
}

// New creates a Resolver. overrides may be nil.
func New(storage, base string, overrides OverrideLookup) *Resolver {
	return &Resolver{
		storage:   storage,
		base:      base,
		overrides: overrides,
	}
}

// FromConfig creates a Resolver bound to cfg.
func FromConfig(cfg *config.Config) *Resolver {
	return New(cfg.Storage, cfg.BasePath(), cfg)
}

// StorageRoot returns the default root, or override joined under it when
// override is non-empty.
func (r *Resolver) StorageRoot(override string) (string, error) {
	if r.storage == "" {
		return "", ErrStorageNotConfigured
	}
	root := r.storage
	if override != "" {
		root = filepath.Join(root, override)
	}
	return r.anchor(root)
}

// IndexPath returns the index document location, preferring the legacy file.
func (r *Resolver) IndexPath() (string, error) {
	dir, err := r.StorageRoot("")
	if err != nil {
		return "", err
	}
	legacy := filepath.Join(dir, LegacyIndexFile)
	if _, err := os.Stat(legacy); err == nil {
		return legacy, nil
	}
	return filepath.Join(dir, IndexFile), nil
}

// PackagePath returns the directory holding name's artifacts. ok is false
// when no storage can be determined.
func (r *Resolver) PackagePath(name string) (string, bool) {
	var override string
	if r.overrides != nil {
		if storage, found := r.overrides.StorageFor(name); found {
			override = storage
		}
	}
	root, err := r.StorageRoot(override)
	if err != nil {
		return "", false
	}
	return filepath.Join(root, filepath.FromSlash(name)), true
}

// Roots returns the default root followed by every override root, without
// duplicates by name or absolute path.
func (r *Resolver) Roots() ([]Root, error) {
	def, err := r.StorageRoot("")
	if err != nil {
		return nil, err
	}
	roots := []Root{{Name: r.storage, Path: def, Default: true}}
	seenName := map[string]bool{r.storage: true}
	seenPath := map[string]bool{def: true}

	lister, ok := r.overrides.(StorageLister)
	if !ok {
		return roots, nil
	}
	for _, name := range lister.StorageNames() {
		if name == "" || seenName[name] {
			continue
		}
		seenName[name] = true
		path, err := r.StorageRoot(name)
		if err != nil {
			return nil, err
		}
		if seenPath[path] {
			continue
		}
		seenPath[path] = true
		roots = append(roots, Root{Name: name, Path: path})
	}
	return roots, nil
}

func (r *Resolver) anchor(p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.base, p)
	}
	return filepath.Abs(p)
}
