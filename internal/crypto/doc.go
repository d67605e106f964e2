// Package crypto provides helpers for the shared registry secret.
//
// The secret itself is opaque to pkgdb; these helpers only:
//   - generate a fresh 32-byte random secret, hex encoded
//   - print a short BLAKE2b fingerprint so operators can check two hosts
//     share a secret without revealing it
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
package crypto
