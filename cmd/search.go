package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/illarion/pkgdb/internal/search"
)

// Search lists every package directory found under the storage roots
func Search(ctx context.Context, env Env, asJSON bool) {
	db, done := openDatabase(env)
	defer done()

	enc := json.NewEncoder(os.Stdout)
	var count int
	var searchErr error
	db.Search(ctx, func(pkg search.Package, ack search.Ack) {
		count++
		if asJSON {
			ack(enc.Encode(pkg))
			return
		}
		fmt.Printf("%-40s %s  %s\n", pkg.Name, time.UnixMilli(pkg.Time).Format(time.RFC3339), pkg.Path)
		ack(nil)
	}, func(err error) {
		searchErr = err
	}, isValidName)

	if searchErr != nil {
		HandleError(searchErr)
	}
	if !asJSON {
		fmt.Printf("\n%d package(s) on disk\n", count)
	}
}
