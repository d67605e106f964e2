package cmd

import (
	"fmt"
)

// Path prints the storage directory of a package, or the index location
// and storage roots when no package is given.
func Path(env Env, name string) {
	db, done := openDatabase(env)
	defer done()

	if name != "" {
		fmt.Println(packageStorage(db, name).Path())
		return
	}

	fmt.Printf("index: %s\n", db.IndexPath())
	roots, err := db.Roots()
	if err != nil {
		HandleError(err)
	}
	for _, root := range roots {
		kind := "override"
		if root.Default {
			kind = "default"
		}
		fmt.Printf("%s: %s\n", kind, root.Path)
	}
}
