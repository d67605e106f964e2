package core

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/illarion/pkgdb/internal/config"
	"github.com/illarion/pkgdb/internal/index"
	"github.com/illarion/pkgdb/internal/localfs"
	"github.com/illarion/pkgdb/internal/logging"
	"github.com/illarion/pkgdb/internal/paths"
	"github.com/illarion/pkgdb/internal/search"
)

// LocalDatabase is the package index, secret and on-disk search of one
// registry storage tree.
type LocalDatabase struct {
	cfg      *config.Config
	logger   logging.Logger
	resolver *paths.Resolver
	store    *index.Store
	opts     []search.Option
}

// New resolves the index path from cfg and loads the index. A missing
// default storage root is returned as paths.ErrStorageNotConfigured.
// opts are applied to every search.
func New(cfg *config.Config, logger logging.Logger, opts ...search.Option) (*LocalDatabase, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.Nop()
	}

	resolver := paths.FromConfig(cfg)
	indexPath, err := resolver.IndexPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve index path: %w", err)
	}
	logger.Debug("opening package index", zap.String("path", indexPath))

	return &LocalDatabase{
		cfg:      cfg,
		logger:   logger,
		resolver: resolver,
		store:    index.Open(indexPath, logger),
		opts:     opts,
	}, nil
}

// Add records name in the index. Adding a known name does not write.
func (d *LocalDatabase) Add(name string) error {
	d.logger.Debug("adding package", zap.String("name", name))
	return d.store.Add(name)
}

// Remove drops name from the index and persists.
func (d *LocalDatabase) Remove(name string) error {
	d.logger.Debug("removing package", zap.String("name", name))
	return d.store.Remove(name)
}

// Get returns the indexed package names in first-seen order.
func (d *LocalDatabase) Get() []string {
	return d.store.List()
}

// GetSecret returns the shared secret, empty if never set.
func (d *LocalDatabase) GetSecret() string {
	return d.store.Secret()
}

// SetSecret replaces the shared secret and persists.
func (d *LocalDatabase) SetSecret(secret string) error {
	return d.store.SetSecret(secret)
}

// Flush forces the index to disk.
func (d *LocalDatabase) Flush() error {
	return d.store.Persist()
}

// Locked reports whether the index was found corrupt at load time.
func (d *LocalDatabase) Locked() bool {
	return d.store.Locked()
}

// IndexPath returns the index document location.
func (d *LocalDatabase) IndexPath() string {
	return d.store.Path()
}

// Config returns the configuration the database was built from.
func (d *LocalDatabase) Config() *config.Config {
	return d.cfg
}

// GetPackageStorage returns the artifact driver for name, or false when
// no storage location can be determined.
func (d *LocalDatabase) GetPackageStorage(name string) (*localfs.Storage, bool) {
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		d.logger.Debug("no storage for package", zap.String("name", name))
		return nil, false
	}
	path, ok := d.resolver.PackagePath(name)
	if !ok {
		d.logger.Debug("no storage for package", zap.String("name", name))
		return nil, false
	}
	d.logger.Trace("package storage resolved", zap.String("name", name), zap.String("path", path))
	return localfs.New(path, d.logger), true
}

// Search reports every package directory under the storage roots. See
// search.Engine.Search for the ack contract; onDone is always called once.
func (d *LocalDatabase) Search(ctx context.Context, onPackage func(search.Package, search.Ack), onDone func(error), isValid search.NameValidator) {
	engine, err := d.engine()
	if err != nil {
		if onDone != nil {
			onDone(err)
		}
		return
	}
	engine.Search(ctx, onPackage, onDone, isValid)
}

// Walk is the sequential form of Search.
func (d *LocalDatabase) Walk(ctx context.Context, isValid search.NameValidator, visit func(search.Package) error) error {
	engine, err := d.engine()
	if err != nil {
		return err
	}
	return engine.Walk(ctx, isValid, visit)
}

// Roots returns the storage roots searched, default first.
func (d *LocalDatabase) Roots() ([]paths.Root, error) {
	return d.resolver.Roots()
}

func (d *LocalDatabase) engine() (*search.Engine, error) {
	roots, err := d.resolver.Roots()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage roots: %w", err)
	}
	return search.New(roots, d.logger, d.opts...), nil
}
