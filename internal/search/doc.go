// Package search finds package directories under the configured storage
// roots, independent of the index.
//
// Each root is listed in order (default root first). Entries named after
// another root are skipped. An entry starting with "@" is a scope whose
// children are scoped packages (`@scope/name`); any other entry accepted by
// the NameValidator is an unscoped package. Packages are delivered one at
// a time: the walk waits for the visitor (or the Ack in callback form)
// before moving on.
//
// By default the first directory listing or stat failure ends the walk.
// WithSkipUnreadable(true) logs and skips unreadable scopes and candidates
// instead; an unreadable root always ends the walk.
package search
