package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/illarion/pkgdb/internal/crypto"
	"github.com/illarion/pkgdb/internal/keyring"
)

// KeyringSave copies the index secret into the OS keyring
func KeyringSave(env Env) {
	db, done := openDatabase(env)
	defer done()

	secret := db.GetSecret()
	if secret == "" {
		fmt.Fprintln(os.Stderr, "Error: no secret set")
		exit(1)
	}

	if err := keyring.SaveSecret(db.IndexPath(), secret); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to save to keyring: %s\n", err)
		exit(1)
	}

	fmt.Println("Secret saved to keyring")
}

// KeyringRestore writes the secret stored in the OS keyring back into the index
func KeyringRestore(env Env) {
	db, done := openDatabase(env)
	defer done()

	secret, err := keyring.GetSecret(db.IndexPath())
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			fmt.Fprintln(os.Stderr, "Error: no secret stored in keyring for this index")
			exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: failed to read keyring: %s\n", err)
		exit(1)
	}

	if current := db.GetSecret(); current != "" && !crypto.ConstantTimeCompare([]byte(current), []byte(secret)) {
		fmt.Fprintf(os.Stderr, "warning: replacing secret %s with %s\n",
			crypto.Fingerprint(current), crypto.Fingerprint(secret))
	}
	if err := db.SetSecret(secret); err != nil {
		HandleError(err)
	}

	fmt.Println("Secret restored from keyring")
}

// KeyringDelete removes the secret from the OS keyring
func KeyringDelete(env Env) {
	db, done := openDatabase(env)
	defer done()

	if err := keyring.DeleteSecret(db.IndexPath()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to delete from keyring: %s\n", err)
		exit(1)
	}

	fmt.Println("Secret removed from keyring")
}

// KeyringStatus checks if the secret is stored in the keyring
func KeyringStatus(env Env) {
	db, done := openDatabase(env)
	defer done()

	stored, err := keyring.GetSecret(db.IndexPath())
	if err != nil {
		fmt.Println("Secret: not stored")
		return
	}

	if crypto.ConstantTimeCompare([]byte(stored), []byte(db.GetSecret())) {
		fmt.Println("Secret: stored in keyring (matches index)")
	} else {
		fmt.Printf("Secret: stored in keyring (fingerprint %s, differs from index)\n", crypto.Fingerprint(stored))
	}
}
