// Package index holds the package-name index and the shared secret.
//
// The document is a small JSON file:
//
//	{"list":["pkg1","@scope/pkg2"],"secret":"..."}
//
// It is loaded once and rewritten in full on every change. A document that
// exists but cannot be read or parsed locks the Store: it keeps serving the
// (empty) in-memory copy but refuses every write with ErrLocked, so a
// damaged file is never replaced by an empty one.
package index
