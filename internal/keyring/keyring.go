// Package keyring keeps a copy of the registry secret in the OS keyring,
// keyed by the absolute path of the index file it belongs to.
package keyring

import (
	"errors"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

const serviceName = "pkgdb"

// ErrNotFound is returned when no secret is stored for an index.
var ErrNotFound = keyring.ErrNotFound

func account(indexPath string) string {
	if abs, err := filepath.Abs(indexPath); err == nil {
		return abs
	}
	return indexPath
}

// SaveSecret stores the secret for indexPath in the OS keyring
func SaveSecret(indexPath, secret string) error {
	return keyring.Set(serviceName, account(indexPath), secret)
}

// GetSecret retrieves the secret for indexPath from the OS keyring
func GetSecret(indexPath string) (string, error) {
	return keyring.Get(serviceName, account(indexPath))
}

// DeleteSecret removes the secret for indexPath from the OS keyring.
// Deleting a missing entry is not an error.
func DeleteSecret(indexPath string) error {
	err := keyring.Delete(serviceName, account(indexPath))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// HasSecret checks if a secret is stored for indexPath
func HasSecret(indexPath string) bool {
	_, err := keyring.Get(serviceName, account(indexPath))
	return err == nil
}
