package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

const (
	SecretSize      = 32 // random bytes in a generated secret
	FingerprintSize = 8  // bytes of the digest shown to operators
)

// GenerateSecret returns a new random secret as lowercase hex.
func GenerateSecret() (string, error) {
	b, err := GenerateRandom(SecretSize)
	if err != nil {
		return "", err
	}
	defer ClearBytes(b)
	return hex.EncodeToString(b), nil
}

// Fingerprint returns a short BLAKE2b digest of secret, safe to print and
// compare between hosts. An empty secret has an empty fingerprint.
func Fingerprint(secret string) string {
	if secret == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:FingerprintSize])
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
