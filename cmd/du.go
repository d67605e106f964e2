package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/illarion/pkgdb/internal/usage"
)

// Du prints disk usage per package. Without names, every indexed package
// is measured.
func Du(ctx context.Context, env Env, names []string) {
	db, done := openDatabase(env)
	defer done()

	if len(names) == 0 {
		names = db.Get()
	}

	var total usage.Usage
	for _, name := range names {
		u, err := db.Usage(ctx, name)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				HandleError(err)
			}
			fmt.Printf("%10s  %s (%s)\n", "-", name, err)
			continue
		}
		total.Add(u)
		fmt.Printf("%10s  %s (%d tarball(s))\n", usage.FormatSize(u.Bytes), name, u.Tarballs)
	}
	if len(names) > 1 {
		fmt.Printf("%10s  total\n", usage.FormatSize(total.Bytes))
	}
}
