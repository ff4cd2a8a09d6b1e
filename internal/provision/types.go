package provision

import (
	"time"

	"github.com/devkit-labs/devkit/internal/detect"
)

// Action is a state-changing operation.
type Action int

const (
	Install Action = iota
	Update
	Uninstall
)

func (a Action) String() string {
	switch a {
	case Install:
		return "install"
	case Update:
		return "update"
	case Uninstall:
		return "uninstall"
	default:
		return "unknown"
	}
}

// MarshalText renders the action by name in JSON output.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Options control a single provisioning request.
type Options struct {
	// Force bypasses the already-installed short circuit.
	Force bool
	// Silent asks backends to suppress interactive and verbose output.
	Silent bool
	// Timeout bounds each backend invocation. Zero means no bound.
	Timeout time.Duration
}

// Attempt records what happened with one backend.
type Attempt struct {
	Backend  string `json:"backend"`
	Skipped  bool   `json:"skipped,omitempty"`
	ExitCode int    `json:"exit_code,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Result is the outcome of one provisioning request.
type Result struct {
	Tool        string        `json:"tool"`
	Action      Action        `json:"action"`
	BackendUsed string        `json:"backend_used,omitempty"`
	Succeeded   bool          `json:"succeeded"`
	Message     string        `json:"message"`
	Attempts    []Attempt     `json:"attempts,omitempty"`
	Detection   detect.Result `json:"detection"`
	// Err carries the classified failure when Succeeded is false.
	Err error `json:"-"`
}
