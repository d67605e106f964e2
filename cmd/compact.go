package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/pkgdb/internal/ledger"
	"github.com/illarion/pkgdb/internal/usage"
)

// Compact compacts the scan ledger to reclaim unused space
func Compact(env Env, ledgerFile string) {
	db, done := openDatabase(env)
	defer done()

	path := ledgerPath(db, ledgerFile)

	// Get file size before
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No scan ledger yet, run 'pkgdb scan' first")
			return
		}
		HandleError(err)
	}
	sizeBefore := info.Size()

	l, err := ledger.Open(path)
	if err != nil {
		HandleError(err)
	}
	err = l.Compact()
	l.Close()
	if err != nil {
		HandleError(err)
	}

	// Get file size after
	info, err = os.Stat(path)
	if err != nil {
		HandleError(err)
	}
	sizeAfter := info.Size()

	fmt.Printf("Compacted: %s -> %s\n", usage.FormatSize(sizeBefore), usage.FormatSize(sizeAfter))
}
