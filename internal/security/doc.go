// Package security validates package names and confines package file
// access to a single directory through os.Root.
package security
