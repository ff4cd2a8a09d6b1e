// Package cli defines the Cobra command tree for the devkit CLI. The root
// command accepts the positional "<tool> <action>" form along with --all,
// --group, --status and --list; each remaining file registers one
// subcommand. Commands delegate to the dispatch, detect and provision
// packages and only handle flag parsing and output.
package cli
