package cmd

import (
	"fmt"
	"os"
)

// Ls lists the packages recorded in the index
func Ls(env Env, long bool) {
	db, done := openDatabase(env)
	defer done()

	names := db.Get()
	if len(names) == 0 {
		fmt.Println("No packages in index")
		return
	}

	if !long {
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	for _, name := range names {
		storage, ok := db.GetPackageStorage(name)
		if !ok {
			fmt.Printf("  ? %s (no storage)\n", name)
			continue
		}
		if _, err := os.Stat(storage.Path()); err != nil {
			fmt.Printf("  ! %s (missing: %s)\n", name, storage.Path())
			continue
		}
		fmt.Printf("  * %s (%s)\n", name, storage.Path())
	}
	fmt.Printf("\n%d package(s) in %s\n", len(names), db.IndexPath())
}
