package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/devkit-labs/devkit/internal/registry"
	"github.com/devkit-labs/devkit/internal/runner"
)

// Options are the provisioning flags a backend translates into its own
// arguments.
type Options struct {
	Force  bool
	Silent bool
}

// Backend is a package manager capable of provisioning tools by package id.
//
// Install, Update and Uninstall report a non-zero exit through
// Output.ExitCode; the error return means the command could not be run.
type Backend interface {
	Name() string
	// Available reports whether the backend itself is usable on this host.
	Available(ctx context.Context) bool
	// Supports reports whether desc declares what this backend needs.
	Supports(desc registry.ToolDescriptor) bool
	Install(ctx context.Context, desc registry.ToolDescriptor, opts Options) (*runner.Output, error)
	Update(ctx context.Context, desc registry.ToolDescriptor, opts Options) (*runner.Output, error)
	Uninstall(ctx context.Context, desc registry.ToolDescriptor, opts Options) (*runner.Output, error)
	// Has reports whether the backend manages desc on this host. A false
	// result with a nil error is definitive.
	Has(ctx context.Context, desc registry.ToolDescriptor) (bool, error)
}

// ErrNotDeclared is returned when a descriptor lacks what a backend needs
// for the requested operation.
var ErrNotDeclared = errors.New("operation not declared for this backend")

// Manual is the name of the backend that runs descriptor-declared commands.
const Manual = "manual"

var constructors = map[string]func(runner.Runner) Backend{
	"winget": NewWinget,
	"choco":  NewChoco,
	"scoop":  NewScoop,
	"brew":   NewBrew,
	Manual:   NewManual,
}

// Known returns the names of every built-in backend.
func Known() []string {
	return []string{"winget", "choco", "scoop", "brew", Manual}
}

// New returns the named backend.
func New(name string, r runner.Runner) (Backend, error) {
	ctor, ok := constructors[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q (known: %s)", name, strings.Join(Known(), ", "))
	}
	return ctor(r), nil
}

// Ordered builds backends in the given priority order, dropping duplicates.
func Ordered(names []string, r runner.Runner) ([]Backend, error) {
	seen := make(map[string]bool, len(names))
	out := make([]Backend, 0, len(names))
	for _, name := range names {
		b, err := New(name, r)
		if err != nil {
			return nil, err
		}
		if seen[b.Name()] {
			continue
		}
		seen[b.Name()] = true
		out = append(out, b)
	}
	return out, nil
}
