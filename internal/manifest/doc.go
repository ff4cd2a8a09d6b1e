// Package manifest parses and validates DevKit tool catalogs. A catalog is a
// YAML document listing tool descriptors and named groups; the default
// catalog is embedded in the binary and a user catalog may be merged over
// it. Catalogs are checked against an embedded JSON Schema before they are
// turned into a registry.
package manifest
