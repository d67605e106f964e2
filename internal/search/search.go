package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/illarion/pkgdb/internal/logging"
	"github.com/illarion/pkgdb/internal/paths"
)

const scopePrefix = "@"

// ErrStopped is returned by a visitor to end a walk early without reporting failure.
var ErrStopped = errors.New("search stopped")

// Package is a package directory found on disk.
type Package struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Time    int64     `json:"time"` // mtime in epoch milliseconds, 0 if unknown
	ModTime time.Time `json:"-"`
}

// Scoped reports whether the package name has an @scope prefix.
func (p Package) Scoped() bool {
	return strings.HasPrefix(p.Name, scopePrefix)
}

// NameValidator filters candidate directory names.
type NameValidator func(name string) bool

// Ack releases the walk to the next candidate. A non-nil error stops it.
type Ack func(err error)

// Option configures an Engine.
type Option func(*Engine)

// WithSkipUnreadable makes unreadable scope directories and candidates a
// warning instead of the end of the walk.
func WithSkipUnreadable(skip bool) Option {
	return func(e *Engine) {
		e.skipUnreadable = skip
	}
}

// Engine walks storage roots looking for package directories.
type Engine struct {
	roots          []paths.Root
	reserved       map[string]bool
	rootPaths      map[string]bool
	logger         logging.Logger
	skipUnreadable bool
}

// New creates an Engine over roots, which are walked in the given order.
func New(roots []paths.Root, logger logging.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	e := &Engine{
		roots:     roots,
		reserved:  make(map[string]bool, len(roots)),
		rootPaths: make(map[string]bool, len(roots)),
		logger:    logger,
	}
	for _, root := range roots {
		e.reserved[root.Name] = true
		e.rootPaths[filepath.Clean(root.Path)] = true
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Walk visits every package under every root, depth first and one at a
// time. The first listing, stat or visitor error ends the walk and is
// returned; ErrStopped from the visitor ends it with a nil result.
func (e *Engine) Walk(ctx context.Context, isValid NameValidator, visit func(Package) error) error {
	if isValid == nil {
		isValid = func(string) bool { return true }
	}
	for _, root := range e.roots {
		if err := e.walkRoot(ctx, root, isValid, visit); err != nil {
			if errors.Is(err, ErrStopped) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Search is the callback form of Walk. onPackage receives each package and
// an Ack that must be called before the next package is delivered; it may
// be called from any goroutine. onDone is called exactly once.
func (e *Engine) Search(ctx context.Context, onPackage func(Package, Ack), onDone func(error), isValid NameValidator) {
	err := e.Walk(ctx, isValid, func(pkg Package) error {
		acked := make(chan error, 1)
		var once sync.Once
		onPackage(pkg, func(err error) {
			once.Do(func() { acked <- err })
		})
		select {
		case err := <-acked:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if onDone != nil {
		onDone(err)
	}
}

func (e *Engine) walkRoot(ctx context.Context, root paths.Root, isValid NameValidator, visit func(Package) error) error {
	entries, err := os.ReadDir(root.Path)
	if err != nil {
		return fmt.Errorf("failed to read storage root %s: %w", root.Path, err)
	}
	e.logger.Trace("searching storage root",
		zap.String("root", root.Path),
		zap.Bool("default", root.Default),
		zap.Int("entries", len(entries)))

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := entry.Name()
		entryPath := filepath.Join(root.Path, name)
		if e.reserved[name] || e.rootPaths[entryPath] {
			continue
		}

		if strings.HasPrefix(name, scopePrefix) {
			if err := e.walkScope(ctx, entryPath, name, isValid, visit); err != nil {
				return err
			}
			continue
		}

		if !isValid(name) {
			continue
		}
		if err := e.report(entryPath, name, visit); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) walkScope(ctx context.Context, scopePath, scope string, isValid NameValidator, visit func(Package) error) error {
	entries, err := os.ReadDir(scopePath)
	if err != nil {
		if e.skipUnreadable {
			e.logger.Warn("skipping unreadable scope", zap.String("path", scopePath), zap.Error(err))
			return nil
		}
		return fmt.Errorf("failed to read scope %s: %w", scopePath, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		inner := entry.Name()
		if !isValid(inner) {
			continue
		}
		if err := e.report(filepath.Join(scopePath, inner), scope+"/"+inner, visit); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) report(path, name string, visit func(Package) error) error {
	info, err := os.Stat(path)
	if err != nil {
		if e.skipUnreadable {
			e.logger.Warn("skipping unreadable package", zap.String("path", path), zap.Error(err))
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	pkg := Package{
		Name:    name,
		Path:    path,
		Time:    info.ModTime().UnixMilli(),
		ModTime: info.ModTime(),
	}
	e.logger.Trace("package found", zap.String("name", name), zap.String("path", path))
	return visit(pkg)
}
