// Package runner is the subprocess boundary. Detection probes, smoke tests,
// and package-manager invocations all go through the Runner interface so they
// can be bounded by a context deadline and replaced with Mock in tests.
package runner
