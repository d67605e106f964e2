package cmd

import (
	"fmt"
)

// Flush rewrites the index file from its loaded contents
func Flush(env Env) {
	db, done := openDatabase(env)
	defer done()

	if err := db.Flush(); err != nil {
		HandleError(err)
	}
	fmt.Printf("Index written: %s\n", db.IndexPath())
}
