package cmd

import (
	"context"
	"fmt"
)

// Diff shows packages that are only in the index or only on disk.
// Exits with status 1 when they differ.
func Diff(ctx context.Context, env Env) {
	db, done := openDatabase(env)
	defer done()

	out, err := db.Diff(ctx, isValidName)
	if err != nil {
		HandleError(err)
	}
	if out == "" {
		fmt.Println("Index and disk agree")
		return
	}
	fmt.Print(out)
	exit(1)
}
