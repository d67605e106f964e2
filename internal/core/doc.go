// Package core provides the package database of a registry storage tree.
//
// LocalDatabase combines:
//   - the JSON package index and shared secret (internal/index)
//   - the storage root layout (internal/paths)
//   - the on-disk package search (internal/search)
//   - per-package artifact drivers (internal/localfs)
//
// On top of those it reconciles disk and index: Sync adds packages found
// on disk, Diff shows where they disagree and Scan records each pass in a
// bbolt ledger so the next pass can report what changed.
//
// An index found corrupt at load time locks the database for the life of
// the instance; every write then fails with index.ErrLocked.
package core
