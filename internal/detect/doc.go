// Package detect determines whether a tool is installed on the host, where
// it lives and which version it reports.
//
// Detection walks a fixed probe chain and stops at the first hit: the
// executable names on PATH, then the descriptor's common install paths, then
// an OS-specific lookup (the Windows uninstall registry). Detection never
// fails outright; every problem is folded into a Result with Status Error.
package detect
