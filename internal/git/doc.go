// Package git checks whether the files holding the registry secret could
// end up in a git repository.
//
// Storage directories are sometimes kept inside a repository. The index
// stores the shared secret in plain text, so it should be neither tracked
// nor unignored.
package git
