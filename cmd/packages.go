package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/illarion/pkgdb/internal/localfs"
	"github.com/illarion/pkgdb/internal/security"
)

// Add records packages in the index
func Add(env Env, names []string) {
	if len(names) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: pkgdb add <package> [package...]")
		exit(1)
	}
	db, done := openDatabase(env)
	defer done()

	for _, name := range names {
		if err := security.ValidatePackage(name); err != nil {
			HandleError(err)
		}
		if err := db.Add(name); err != nil {
			HandleError(err)
		}
		fmt.Printf("added: %s\n", name)
	}
}

// Remove drops packages from the index. With purge, the package's
// manifest and tarballs are deleted from storage too.
func Remove(env Env, names []string, purge bool) {
	if len(names) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: pkgdb rm [--purge] <package> [package...]")
		exit(1)
	}
	db, done := openDatabase(env)
	defer done()

	for _, name := range names {
		if err := db.Remove(name); err != nil {
			HandleError(err)
		}
		fmt.Printf("removed: %s\n", name)

		if !purge {
			continue
		}
		storage := packageStorage(db, name)
		if err := purgeStorage(storage); err != nil {
			HandleError(err)
		}
		fmt.Printf("purged: %s\n", storage.Path())
	}
}

func purgeStorage(storage *localfs.Storage) error {
	tarballs, err := storage.Tarballs()
	if err != nil {
		if errors.Is(err, localfs.ErrNotFound) {
			return nil
		}
		return err
	}
	for _, name := range append(tarballs, localfs.PackageFile) {
		if err := storage.DeletePackage(name); err != nil && !errors.Is(err, localfs.ErrNotFound) {
			return err
		}
	}
	return storage.RemovePackage()
}
