// Package config loads pkgdb configuration.
//
// Sources are applied in order: built-in defaults, the YAML config file,
// then PKGDB_* environment variables. The `packages` section maps package
// name patterns (doublestar globs such as `@scope/*` or `**`) to rules; the
// `storage` key of the first matching rule selects an override storage root
// below the default one.
package config
