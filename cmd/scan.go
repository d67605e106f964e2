package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/illarion/pkgdb/internal/ledger"
)

// Scan records the packages on disk and prints what changed since the last scan
func Scan(ctx context.Context, env Env, ledgerFile string) {
	db, done := openDatabase(env)
	defer done()

	l, err := ledger.Open(ledgerPath(db, ledgerFile))
	if err != nil {
		HandleError(err)
	}
	defer l.Close()

	last, err := l.LastScan()
	if err != nil && !errors.Is(err, ledger.ErrNotInitialized) {
		HandleError(err)
	}

	changes, err := db.Scan(ctx, l, isValidName)
	if err != nil {
		HandleError(err)
	}

	if last.IsZero() {
		fmt.Println("First scan")
	} else {
		fmt.Printf("Changes since %s:\n", last.Format("2006-01-02 15:04:05"))
	}
	if changes.Empty() {
		fmt.Println("  no changes")
		return
	}
	for _, e := range changes.Added {
		fmt.Printf("  + %s\n", e.Name)
	}
	for _, e := range changes.Removed {
		fmt.Printf("  - %s\n", e.Name)
	}
	for _, e := range changes.Changed {
		fmt.Printf("  ~ %s\n", e.Name)
	}
}
