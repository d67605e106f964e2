package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/pkgdb/internal/core"
	"github.com/illarion/pkgdb/internal/crypto"
)

// SecretGet prints the shared secret
func SecretGet(env Env) {
	db, done := openDatabase(env)
	defer done()

	secret := db.GetSecret()
	if secret == "" {
		fmt.Fprintln(os.Stderr, "No secret set")
		exit(1)
	}
	fmt.Println(secret)
}

// SecretSet replaces the shared secret. The value comes from the argument,
// PKGDB_SECRET, or a confirmed terminal prompt, in that order.
func SecretSet(env Env, value string) {
	secret := []byte(value)
	if value == "" {
		secret = core.GetSecretFromEnv()
	}
	if secret == nil {
		var err error
		secret, err = core.ReadSecretConfirm()
		if err != nil {
			HandleError(err)
		}
	}
	defer crypto.ClearBytes(secret)
	if len(secret) == 0 {
		fmt.Fprintln(os.Stderr, "Error: secret must not be empty")
		exit(1)
	}

	db, done := openDatabase(env)
	defer done()

	if err := db.SetSecret(string(secret)); err != nil {
		HandleError(err)
	}
	fmt.Printf("Secret set (fingerprint %s)\n", crypto.Fingerprint(string(secret)))
}

// SecretGenerate stores a new random secret. An existing secret is kept
// unless force is set.
func SecretGenerate(env Env, force bool) {
	db, done := openDatabase(env)
	defer done()

	if db.GetSecret() != "" && !force {
		fmt.Fprintln(os.Stderr, "Error: a secret is already set")
		fmt.Fprintln(os.Stderr, "Use --force to replace it")
		exit(1)
	}

	secret, err := crypto.GenerateSecret()
	if err != nil {
		HandleError(err)
	}
	if err := db.SetSecret(secret); err != nil {
		HandleError(err)
	}
	fmt.Printf("Secret generated (fingerprint %s)\n", crypto.Fingerprint(secret))
}

// SecretFingerprint prints a short digest of the secret
func SecretFingerprint(env Env) {
	db, done := openDatabase(env)
	defer done()

	fp := crypto.Fingerprint(db.GetSecret())
	if fp == "" {
		fmt.Println("No secret set")
		return
	}
	fmt.Println(fp)
}
