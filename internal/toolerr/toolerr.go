// Package toolerr defines the failure taxonomy shared by detection,
// provisioning, and dispatch. Failures travel as values inside results;
// nothing in the provisioning path panics or escapes as an unhandled error.
package toolerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure.
type Kind string

const (
	// ProbeFailed means a detection subprocess did not run or errored.
	ProbeFailed Kind = "PROBE_FAILED"
	// BackendUnavailable means no eligible package manager exists on the host.
	BackendUnavailable Kind = "BACKEND_UNAVAILABLE"
	// BackendExitNonZero means an install/update/uninstall subprocess reported failure.
	BackendExitNonZero Kind = "BACKEND_EXIT_NON_ZERO"
	// ConfirmationFailed means a backend succeeded but detection disagrees after settling.
	ConfirmationFailed Kind = "CONFIRMATION_FAILED"
	// UnknownTarget means a name matched neither a tool nor a group.
	UnknownTarget Kind = "UNKNOWN_TARGET"
	// NotInstalled means an action needs the tool present and it is not.
	NotInstalled Kind = "NOT_INSTALLED"
	// CheckFailed means a smoke test or version requirement did not hold.
	CheckFailed Kind = "CHECK_FAILED"
)

// Error is a classified failure for one tool, optionally tied to a backend.
type Error struct {
	Kind     Kind
	Tool     string
	Backend  string
	ExitCode int
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Tool != "" {
		b.WriteString(" [" + e.Tool)
		if e.Backend != "" {
			b.WriteString("/" + e.Backend)
		}
		b.WriteString("]")
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if msg != "" {
		b.WriteString(": " + msg)
	}
	return b.String()
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New creates an Error with a formatted message.
func New(kind Kind, tool string, format string, args ...any) *Error {
	return &Error{Kind: kind, Tool: tool, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around cause.
func Wrap(kind Kind, tool string, cause error) *Error {
	return &Error{Kind: kind, Tool: tool, Cause: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
