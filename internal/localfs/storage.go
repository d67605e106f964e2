// Package localfs stores one package's manifest and tarballs in a single
// directory. Every file access goes through an os.Root bound to that
// directory.
package localfs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/illarion/pkgdb/internal/logging"
	"github.com/illarion/pkgdb/internal/security"
)

const (
	PackageFile   = "package.json"
	TarballSuffix = ".tgz"
	DirPerm       = 0o755
	FilePerm      = 0o644
)

var (
	ErrNotFound      = errors.New("no such package file")
	ErrPackageExists = errors.New("package already exists")
	ErrInvalidJSON   = errors.New("package manifest is not valid JSON")
)

// Storage is the artifact driver for one package directory.
type Storage struct {
	path   string
	logger logging.Logger
}

// New binds a Storage to path. The directory is created on first write.
func New(path string, logger logging.Logger) *Storage {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Storage{path: path, logger: logger}
}

// Path returns the package directory.
func (s *Storage) Path() string {
	return s.path
}

func (s *Storage) open(create bool) (*security.PathValidator, error) {
	if create {
		if err := os.MkdirAll(s.path, DirPerm); err != nil {
			return nil, fmt.Errorf("failed to create package directory: %w", err)
		}
	}
	pv, err := security.New(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, err
	}
	return pv, nil
}

func notFound(err error, name string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return err
}

// ReadPackage returns the raw package manifest.
func (s *Storage) ReadPackage() ([]byte, error) {
	pv, err := s.open(false)
	if err != nil {
		return nil, err
	}
	defer pv.Close()

	data, err := pv.ReadFileInRoot(PackageFile)
	if err != nil {
		return nil, notFound(err, PackageFile)
	}
	s.logger.Trace("read package manifest", zap.String("path", s.path), zap.Int("bytes", len(data)))
	return data, nil
}

// CreatePackage writes the manifest of a new package, failing with
// ErrPackageExists if one is already there.
func (s *Storage) CreatePackage(data []byte) error {
	if !json.Valid(data) {
		return ErrInvalidJSON
	}
	pv, err := s.open(true)
	if err != nil {
		return err
	}
	defer pv.Close()

	f, err := pv.CreateExclusiveInRoot(PackageFile, FilePerm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrPackageExists, s.path)
		}
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		pv.RemoveInRoot(PackageFile)
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := f.Close(); err != nil {
		pv.RemoveInRoot(PackageFile)
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	s.logger.Debug("package created", zap.String("path", s.path))
	return nil
}

// WritePackage replaces the manifest atomically.
func (s *Storage) WritePackage(data []byte) error {
	if !json.Valid(data) {
		return ErrInvalidJSON
	}
	pv, err := s.open(true)
	if err != nil {
		return err
	}
	defer pv.Close()

	if err := pv.WriteFileAtomicInRoot(PackageFile, data, FilePerm); err != nil {
		return err
	}
	s.logger.Trace("package manifest written", zap.String("path", s.path))
	return nil
}

// DeletePackage removes one file (manifest or tarball) from the package.
func (s *Storage) DeletePackage(name string) error {
	pv, err := s.open(false)
	if err != nil {
		return err
	}
	defer pv.Close()

	if err := pv.RemoveInRoot(name); err != nil {
		return notFound(err, name)
	}
	s.logger.Debug("package file removed", zap.String("path", s.path), zap.String("file", name))
	return nil
}

// RemovePackage removes the (empty) package directory, and its scope
// directory if that is left empty too.
func (s *Storage) RemovePackage() error {
	if err := os.Remove(s.path); err != nil {
		return notFound(err, s.path)
	}
	parent := filepath.Dir(s.path)
	if strings.HasPrefix(filepath.Base(parent), "@") {
		// Ignore the error: the scope still holds other packages
		_ = os.Remove(parent)
	}
	s.logger.Debug("package directory removed", zap.String("path", s.path))
	return nil
}

// WriteTarball streams a tarball into the package directory. The file
// only appears under its final name once fully written.
func (s *Storage) WriteTarball(name string, r io.Reader) (int64, error) {
	pv, err := s.open(true)
	if err != nil {
		return 0, err
	}
	defer pv.Close()

	n, err := pv.CopyAtomicInRoot(name, r, FilePerm)
	if err != nil {
		return n, err
	}
	s.logger.Debug("tarball written",
		zap.String("path", s.path),
		zap.String("file", name),
		zap.Int64("bytes", n))
	return n, nil
}

// ReadTarball opens a tarball for reading and returns its size.
func (s *Storage) ReadTarball(name string) (io.ReadCloser, int64, error) {
	pv, err := s.open(false)
	if err != nil {
		return nil, 0, err
	}
	defer pv.Close()

	f, err := pv.OpenInRoot(name)
	if err != nil {
		return nil, 0, notFound(err, name)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

// Tarballs lists the tarball file names in the package, sorted.
func (s *Storage) Tarballs() ([]string, error) {
	pv, err := s.open(false)
	if err != nil {
		return nil, err
	}
	defer pv.Close()

	entries, err := pv.ReadDirInRoot()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), TarballSuffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
