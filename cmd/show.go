package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/illarion/pkgdb/internal/localfs"
	"github.com/illarion/pkgdb/internal/usage"
)

// Show prints what is stored for one package
func Show(env Env, name string) {
	db, done := openDatabase(env)
	defer done()

	storage := packageStorage(db, name)
	fmt.Printf("Package: %s\n", name)
	fmt.Printf("Path:    %s\n", storage.Path())

	indexed := false
	for _, n := range db.Get() {
		if n == name {
			indexed = true
			break
		}
	}
	fmt.Printf("Indexed: %t\n", indexed)

	manifest, err := storage.ReadPackage()
	switch {
	case errors.Is(err, localfs.ErrNotFound):
		fmt.Println("Manifest: none")
	case err != nil:
		HandleError(err)
	default:
		var meta struct {
			Name     string            `json:"name"`
			DistTags map[string]string `json:"dist-tags"`
		}
		_ = json.Unmarshal(manifest, &meta)
		fmt.Printf("Manifest: %s", usage.FormatSize(int64(len(manifest))))
		if latest, ok := meta.DistTags["latest"]; ok {
			fmt.Printf(" (latest %s)", latest)
		}
		fmt.Println()
	}

	tarballs, err := storage.Tarballs()
	if err != nil && !errors.Is(err, localfs.ErrNotFound) {
		HandleError(err)
	}
	if len(tarballs) == 0 {
		fmt.Println("Tarballs: none")
		return
	}
	fmt.Println("Tarballs:")
	for _, t := range tarballs {
		fmt.Printf("  %s\n", t)
	}
}
