package core

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/illarion/pkgdb/internal/crypto"
)

// SecretEnv names the environment variable consulted before prompting.
const SecretEnv = "PKGDB_SECRET"

// ReadSecret reads a secret from the terminal without echoing
func ReadSecret(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)

	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	return secret, nil
}

// ReadSecretConfirm reads a secret twice and ensures they match
func ReadSecretConfirm() ([]byte, error) {
	secret1, err := ReadSecret("Enter secret: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(secret1)

	secret2, err := ReadSecret("Confirm secret: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(secret2)

	if !crypto.ConstantTimeCompare(secret1, secret2) {
		return nil, fmt.Errorf("secrets do not match")
	}

	result := make([]byte, len(secret1))
	copy(result, secret1)
	return result, nil
}

// GetSecretFromEnv reads the secret from PKGDB_SECRET, nil if unset
func GetSecretFromEnv() []byte {
	secret := strings.TrimSpace(os.Getenv(SecretEnv))
	if secret == "" {
		return nil
	}
	return []byte(secret)
}

// IsTerminal reports whether stdin is an interactive terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(syscall.Stdin))
}
