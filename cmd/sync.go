package cmd

import (
	"context"
	"fmt"
)

// Sync adds packages found on disk to the index
func Sync(ctx context.Context, env Env, dryRun bool) {
	db, done := openDatabase(env)
	defer done()

	if dryRun {
		found, err := db.Discover(ctx, isValidName)
		if err != nil {
			HandleError(err)
		}
		known := make(map[string]bool)
		for _, name := range db.Get() {
			known[name] = true
		}
		var missing int
		for _, pkg := range found {
			if known[pkg.Name] {
				continue
			}
			missing++
			fmt.Printf("would add: %s\n", pkg.Name)
		}
		if missing == 0 {
			fmt.Println("Index is up to date")
		}
		return
	}

	added, err := db.Sync(ctx, isValidName)
	for _, name := range added {
		fmt.Printf("added: %s\n", name)
	}
	if err != nil {
		HandleError(err)
	}
	if len(added) == 0 {
		fmt.Println("Index is up to date")
	}
}
