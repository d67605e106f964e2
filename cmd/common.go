package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/illarion/pkgdb/internal/config"
	"github.com/illarion/pkgdb/internal/core"
	"github.com/illarion/pkgdb/internal/index"
	"github.com/illarion/pkgdb/internal/ledger"
	"github.com/illarion/pkgdb/internal/localfs"
	"github.com/illarion/pkgdb/internal/logging"
	"github.com/illarion/pkgdb/internal/paths"
	"github.com/illarion/pkgdb/internal/search"
	"github.com/illarion/pkgdb/internal/security"
)

// Env holds the global flags shared by every command.
type Env struct {
	ConfigPath     string
	SkipUnreadable bool
}

// flushLogs is replaced by openDatabase so that exit flushes buffered log
// output before the process ends.
var flushLogs = func() {}

var osExit = os.Exit

// exit flushes the logger and ends the process with code.
func exit(code int) {
	flushLogs()
	osExit(code)
}

// isValidName is the name filter used for every search started from the CLI.
var isValidName search.NameValidator = security.IsValidName

// openDatabase loads configuration, builds the logger and opens the
// database. The returned func flushes the logger.
func openDatabase(env Env) (*core.LocalDatabase, func()) {
	cfg, err := config.Load(env.ConfigPath)
	if err != nil {
		HandleError(err)
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "Error: config %s\n", p)
		}
		exit(1)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q: %s\n", cfg.Logging.Level, err)
		exit(1)
	}

	flushLogs = func() { _ = logger.Sync() }

	db, err := core.New(cfg, logger.Named("db"), search.WithSkipUnreadable(env.SkipUnreadable))
	if err != nil {
		HandleError(err)
	}
	if db.Locked() {
		fmt.Fprintf(os.Stderr, "warning: index %s is unreadable, changes will be refused\n", db.IndexPath())
	}
	return db, flushLogs
}

// packageStorage resolves the storage driver for name or exits.
func packageStorage(db *core.LocalDatabase, name string) *localfs.Storage {
	if err := security.ValidatePackage(name); err != nil {
		HandleError(err)
	}
	storage, ok := db.GetPackageStorage(name)
	if !ok {
		HandleError(fmt.Errorf("%w: %s", core.ErrNoStorage, name))
	}
	return storage
}

// ledgerPath returns override, or the scan ledger next to the index.
func ledgerPath(db *core.LocalDatabase, override string) string {
	if override != "" {
		return override
	}
	return filepath.Join(filepath.Dir(db.IndexPath()), ledger.DefaultFile)
}

// HandleError handles common errors consistently
func HandleError(err error) {
	switch {
	case errors.Is(err, config.ErrNoConfigFile):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Pass -config or set PKGDB_CONFIG\n")
	case errors.Is(err, paths.ErrStorageNotConfigured):
		fmt.Fprintf(os.Stderr, "Error: no storage root configured\n")
		fmt.Fprintf(os.Stderr, "Set 'storage' in the config file or PKGDB_STORAGE\n")
	case errors.Is(err, index.ErrLocked):
		fmt.Fprintf(os.Stderr, "Error: index is locked because it could not be read at startup\n")
		fmt.Fprintf(os.Stderr, "Repair or move the index file, then run the command again\n")
	case errors.Is(err, localfs.ErrPackageExists):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		fmt.Fprintf(os.Stderr, "Use --force to replace the manifest\n")
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	exit(1)
}
