package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/pkgdb/internal/crypto"
	"github.com/illarion/pkgdb/internal/git"
	"github.com/illarion/pkgdb/internal/keyring"
	"github.com/illarion/pkgdb/internal/ledger"
)

// Status shows the state of the index, secret and storage roots
func Status(env Env) {
	db, done := openDatabase(env)
	defer done()

	fmt.Printf("Index:    %s\n", db.IndexPath())
	if db.Locked() {
		fmt.Println("State:    locked (index could not be read, writes are refused)")
	} else {
		fmt.Println("State:    ok")
	}
	fmt.Printf("Packages: %d\n", len(db.Get()))

	secret := db.GetSecret()
	switch {
	case secret == "":
		fmt.Println("Secret:   not set")
	case keyring.HasSecret(db.IndexPath()):
		fmt.Printf("Secret:   %s (copy in keyring)\n", crypto.Fingerprint(secret))
	default:
		fmt.Printf("Secret:   %s\n", crypto.Fingerprint(secret))
	}

	roots, err := db.Roots()
	if err != nil {
		HandleError(err)
	}
	fmt.Println("\nStorage roots:")
	for _, root := range roots {
		marker := " "
		if root.Default {
			marker = "*"
		}
		state := "ok"
		if _, err := os.Stat(root.Path); err != nil {
			state = "missing"
		}
		fmt.Printf("  %s %s (%s)\n", marker, root.Path, state)
	}

	files := []string{db.IndexPath()}
	ledgerFile := ledgerPath(db, "")
	if _, err := os.Stat(ledgerFile); err == nil {
		files = append(files, ledgerFile)
		if l, err := ledger.Open(ledgerFile); err == nil {
			if last, err := l.LastScan(); err == nil && !last.IsZero() {
				fmt.Printf("\nLast scan: %s\n", last.Format("2006-01-02 15:04:05"))
			}
			l.Close()
		}
	}
	fmt.Print(git.FormatStatus(git.Check(files)))
}
