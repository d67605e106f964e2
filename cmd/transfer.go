package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/illarion/pkgdb/internal/localfs"
)

// Import copies a manifest and tarballs into a package's storage and
// records the package in the index. An existing manifest is only replaced
// with force.
func Import(env Env, name, manifestFile string, tarballs []string, force bool) {
	data, err := os.ReadFile(filepath.Clean(manifestFile)) // #nosec G304 -- operator supplied path
	if err != nil {
		HandleError(fmt.Errorf("failed to read manifest: %w", err))
	}

	db, done := openDatabase(env)
	defer done()

	storage := packageStorage(db, name)
	if force {
		err = storage.WritePackage(data)
	} else {
		err = storage.CreatePackage(data)
	}
	if err != nil {
		HandleError(err)
	}

	for _, tarball := range tarballs {
		n, err := copyTarballIn(storage, tarball)
		if err != nil {
			HandleError(err)
		}
		fmt.Printf("stored: %s (%d bytes)\n", filepath.Base(tarball), n)
	}

	if err := db.Add(name); err != nil {
		HandleError(err)
	}
	fmt.Printf("imported: %s -> %s\n", name, storage.Path())
}

func copyTarballIn(storage *localfs.Storage, path string) (int64, error) {
	f, err := os.Open(filepath.Clean(path)) // #nosec G304 -- operator supplied path
	if err != nil {
		return 0, fmt.Errorf("failed to open tarball: %w", err)
	}
	defer f.Close()
	return storage.WriteTarball(filepath.Base(path), f)
}

// Export writes one tarball of a package to dest, or stdout when dest is
// empty or "-".
func Export(env Env, name, tarball, dest string) {
	db, done := openDatabase(env)
	defer done()

	storage := packageStorage(db, name)
	r, size, err := storage.ReadTarball(tarball)
	if err != nil {
		HandleError(err)
	}
	defer r.Close()

	if dest == "" || dest == "-" {
		if _, err := io.Copy(os.Stdout, r); err != nil {
			HandleError(err)
		}
		return
	}

	out, err := os.OpenFile(filepath.Clean(dest), os.O_WRONLY|os.O_CREATE|os.O_EXCL, localfs.FilePerm) // #nosec G304 -- operator supplied path
	if err != nil {
		HandleError(fmt.Errorf("failed to create %s: %w", dest, err))
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		HandleError(fmt.Errorf("failed to write %s: %w", dest, err))
	}
	if err := out.Close(); err != nil {
		HandleError(fmt.Errorf("failed to write %s: %w", dest, err))
	}
	fmt.Fprintf(os.Stderr, "exported: %s (%d bytes)\n", dest, size)
}
