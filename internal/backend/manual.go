package backend

import (
	"context"
	"fmt"

	"github.com/devkit-labs/devkit/internal/registry"
	"github.com/devkit-labs/devkit/internal/runner"
)

// manualBackend runs the install/update/uninstall commands a descriptor
// declares directly. It is the fallback for tools no package manager
// carries, such as the package managers themselves.
type manualBackend struct {
	runner runner.Runner
}

// NewManual returns the manual-command backend.
func NewManual(r runner.Runner) Backend {
	return &manualBackend{runner: r}
}

func (b *manualBackend) Name() string { return Manual }

func (b *manualBackend) Available(context.Context) bool { return true }

func (b *manualBackend) Supports(desc registry.ToolDescriptor) bool {
	m := desc.Manual
	return m != nil && (m.Install != nil || m.Update != nil || m.Uninstall != nil)
}

func (b *manualBackend) Install(ctx context.Context, desc registry.ToolDescriptor, _ Options) (*runner.Output, error) {
	return b.run(ctx, desc, "install", func(m *registry.ManualCommands) *registry.Command { return m.Install })
}

func (b *manualBackend) Update(ctx context.Context, desc registry.ToolDescriptor, _ Options) (*runner.Output, error) {
	return b.run(ctx, desc, "update", func(m *registry.ManualCommands) *registry.Command { return m.Update })
}

func (b *manualBackend) Uninstall(ctx context.Context, desc registry.ToolDescriptor, _ Options) (*runner.Output, error) {
	return b.run(ctx, desc, "uninstall", func(m *registry.ManualCommands) *registry.Command { return m.Uninstall })
}

// Has cannot query anything, so it defers to whether the descriptor
// declares manual commands at all.
func (b *manualBackend) Has(_ context.Context, desc registry.ToolDescriptor) (bool, error) {
	return b.Supports(desc), nil
}

func (b *manualBackend) run(ctx context.Context, desc registry.ToolDescriptor, op string, pick func(*registry.ManualCommands) *registry.Command) (*runner.Output, error) {
	if desc.Manual == nil {
		return nil, fmt.Errorf("manual %s for %s: %w", op, desc.Name, ErrNotDeclared)
	}
	cmd := pick(desc.Manual)
	if cmd == nil || cmd.Name == "" {
		return nil, fmt.Errorf("manual %s for %s: %w", op, desc.Name, ErrNotDeclared)
	}
	return b.runner.Run(ctx, cmd.Name, cmd.Args...)
}
