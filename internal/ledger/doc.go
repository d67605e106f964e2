// Package ledger provides the BBolt database that remembers the last disk scan.
//
// Database structure uses two buckets:
//   - meta: version, creation time, last scan time, scan counter
//   - packages: one JSON Entry per package found by the last scan
//
// Comparing a fresh search against the ledger shows which packages were
// copied in, deleted or touched on disk since the previous scan, without
// involving the index document.
//
// BBolt provides ACID transactions, file locking, and corruption detection.
package ledger
