package security

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	ErrPathEscapes = errors.New("path escapes package directory")
	ErrEmptyPath   = errors.New("empty path not allowed")
	ErrInvalidName = errors.New("invalid package name")
)

var nameChars = regexp.MustCompile(`^[-a-zA-Z0-9_.!~*'()@]+$`)

var reservedNames = map[string]bool{
	"node_modules": true,
	"__proto__":    true,
	"favicon.ico":  true,
}

// IsValidName reports whether a single path segment may name a package
// (or the inner part of a scoped package). Dot-files and reserved names
// are rejected, which keeps index documents and temp files out of search
// results.
func IsValidName(name string) bool {
	lower := strings.ToLower(name)
	if !nameChars.MatchString(lower) {
		return false
	}
	if strings.HasPrefix(lower, ".") {
		return false
	}
	return !reservedNames[lower]
}

// ValidatePackage checks a full package name, scoped (`@scope/name`) or not.
func ValidatePackage(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	scope, inner, scoped := strings.Cut(name, "/")
	if !scoped {
		if !IsValidName(name) {
			return fmt.Errorf("%w: %s", ErrInvalidName, name)
		}
		return nil
	}
	if !strings.HasPrefix(scope, "@") || !IsValidName(scope[1:]) || !IsValidName(inner) {
		return fmt.Errorf("%w: %s", ErrInvalidName, name)
	}
	return nil
}

// PathValidator confines file operations to one directory using os.Root.
type PathValidator struct {
	root *os.Root
	path string
}

// New opens a PathValidator for the existing directory at path.
func New(path string) (*PathValidator, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory root: %w", err)
	}

	return &PathValidator{
		root: root,
		path: absPath,
	}, nil
}

// Close releases the underlying root.
func (pv *PathValidator) Close() error {
	if pv.root != nil {
		return pv.root.Close()
	}
	return nil
}

// Path returns the absolute directory the validator is bound to.
func (pv *PathValidator) Path() string {
	return pv.path
}

// ValidateFileName accepts a relative, local path and returns it cleaned.
func ValidateFileName(name string) (string, error) {
	if name == "" {
		return "", ErrEmptyPath
	}
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, name)
	}
	return filepath.Clean(name), nil
}

// ReadFileInRoot reads a file inside the directory.
func (pv *PathValidator) ReadFileInRoot(name string) ([]byte, error) {
	clean, err := ValidateFileName(name)
	if err != nil {
		return nil, err
	}
	return pv.root.ReadFile(clean)
}

// OpenInRoot opens a file inside the directory for reading.
func (pv *PathValidator) OpenInRoot(name string) (*os.File, error) {
	clean, err := ValidateFileName(name)
	if err != nil {
		return nil, err
	}
	return pv.root.Open(clean)
}

// CreateExclusiveInRoot creates a new file, failing if it already exists.
func (pv *PathValidator) CreateExclusiveInRoot(name string, perm os.FileMode) (*os.File, error) {
	clean, err := ValidateFileName(name)
	if err != nil {
		return nil, err
	}
	return pv.root.OpenFile(clean, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
}

// WriteFileAtomicInRoot writes data to a temp file and renames it over name.
func (pv *PathValidator) WriteFileAtomicInRoot(name string, data []byte, perm os.FileMode) error {
	clean, err := ValidateFileName(name)
	if err != nil {
		return err
	}
	tmp := clean + ".tmp"
	if err := pv.root.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := pv.root.Rename(tmp, clean); err != nil {
		pv.root.Remove(tmp)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// CopyAtomicInRoot streams r into a temp file and renames it over name.
func (pv *PathValidator) CopyAtomicInRoot(name string, r io.Reader, perm os.FileMode) (int64, error) {
	clean, err := ValidateFileName(name)
	if err != nil {
		return 0, err
	}
	tmp := clean + ".tmp"
	f, err := pv.root.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	n, err := io.Copy(f, r)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		pv.root.Remove(tmp)
		return n, fmt.Errorf("failed to write %s: %w", clean, err)
	}
	if err := pv.root.Rename(tmp, clean); err != nil {
		pv.root.Remove(tmp)
		return n, fmt.Errorf("failed to rename file: %w", err)
	}
	return n, nil
}

// RemoveInRoot removes a file inside the directory.
func (pv *PathValidator) RemoveInRoot(name string) error {
	clean, err := ValidateFileName(name)
	if err != nil {
		return err
	}
	return pv.root.Remove(clean)
}

// StatInRoot stats a file inside the directory.
func (pv *PathValidator) StatInRoot(name string) (os.FileInfo, error) {
	clean, err := ValidateFileName(name)
	if err != nil {
		return nil, err
	}
	return pv.root.Stat(clean)
}

// ReadDirInRoot lists the directory itself.
func (pv *PathValidator) ReadDirInRoot() ([]os.DirEntry, error) {
	dir, err := pv.root.Open(".")
	if err != nil {
		return nil, err
	}
	defer dir.Close()
	return dir.ReadDir(-1)
}
