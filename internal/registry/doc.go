// Package registry holds the static tool descriptors and named groups that
// DevKit operates on. A Registry is built once from the catalog at startup
// and is read-only afterwards; lookups hand out copies so callers cannot
// mutate shared state.
package registry
