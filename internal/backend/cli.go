package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/devkit-labs/devkit/internal/registry"
	"github.com/devkit-labs/devkit/internal/runner"
)

// argsFunc builds the arguments of one package-manager subcommand.
type argsFunc func(id string, opts Options) []string

// commandSet describes a package manager's command line.
type commandSet struct {
	install   argsFunc
	update    argsFunc
	uninstall argsFunc
	list      func(id string) []string
}

// cliBackend drives a package manager through its command line.
type cliBackend struct {
	name       string
	executable string
	runner     runner.Runner
	cmds       commandSet
}

func (b *cliBackend) Name() string { return b.name }

func (b *cliBackend) Available(context.Context) bool {
	_, err := b.runner.LookPath(b.executable)
	return err == nil
}

func (b *cliBackend) Supports(desc registry.ToolDescriptor) bool {
	_, ok := desc.PackageID(b.name)
	return ok
}

func (b *cliBackend) Install(ctx context.Context, desc registry.ToolDescriptor, opts Options) (*runner.Output, error) {
	return b.run(ctx, desc, b.cmds.install, opts)
}

func (b *cliBackend) Update(ctx context.Context, desc registry.ToolDescriptor, opts Options) (*runner.Output, error) {
	return b.run(ctx, desc, b.cmds.update, opts)
}

func (b *cliBackend) Uninstall(ctx context.Context, desc registry.ToolDescriptor, opts Options) (*runner.Output, error) {
	return b.run(ctx, desc, b.cmds.uninstall, opts)
}

// Has runs the list subcommand and looks for the package id in its output.
func (b *cliBackend) Has(ctx context.Context, desc registry.ToolDescriptor) (bool, error) {
	id, ok := desc.PackageID(b.name)
	if !ok {
		return false, nil
	}
	out, err := b.runner.Run(ctx, b.executable, b.cmds.list(id)...)
	if err != nil {
		return false, fmt.Errorf("%s list %s: %w", b.name, id, err)
	}
	if out.ExitCode != 0 {
		return false, nil
	}
	return strings.Contains(strings.ToLower(out.Combined()), strings.ToLower(id)), nil
}

func (b *cliBackend) run(ctx context.Context, desc registry.ToolDescriptor, args argsFunc, opts Options) (*runner.Output, error) {
	id, ok := desc.PackageID(b.name)
	if !ok {
		return nil, fmt.Errorf("%s: no package id for %s: %w", b.name, desc.Name, ErrNotDeclared)
	}
	return b.runner.Run(ctx, b.executable, args(id, opts)...)
}

func flag(on bool, args ...string) []string {
	if on {
		return args
	}
	return nil
}

// NewWinget returns the Windows Package Manager backend.
func NewWinget(r runner.Runner) Backend {
	agreements := []string{"--accept-package-agreements", "--accept-source-agreements", "--disable-interactivity"}
	return &cliBackend{
		name:       "winget",
		executable: "winget",
		runner:     r,
		cmds: commandSet{
			install: func(id string, o Options) []string {
				args := append([]string{"install", "--id", id, "--exact"}, agreements...)
				args = append(args, flag(o.Silent, "--silent")...)
				return append(args, flag(o.Force, "--force")...)
			},
			update: func(id string, o Options) []string {
				args := append([]string{"upgrade", "--id", id, "--exact"}, agreements...)
				args = append(args, flag(o.Silent, "--silent")...)
				return append(args, flag(o.Force, "--force")...)
			},
			uninstall: func(id string, o Options) []string {
				args := []string{"uninstall", "--id", id, "--exact", "--accept-source-agreements", "--disable-interactivity"}
				args = append(args, flag(o.Silent, "--silent")...)
				return append(args, flag(o.Force, "--force")...)
			},
			list: func(id string) []string {
				return []string{"list", "--id", id, "--exact", "--accept-source-agreements"}
			},
		},
	}
}

// NewChoco returns the Chocolatey backend.
func NewChoco(r runner.Runner) Backend {
	return &cliBackend{
		name:       "choco",
		executable: "choco",
		runner:     r,
		cmds: commandSet{
			install: func(id string, o Options) []string {
				args := []string{"install", id, "-y"}
				args = append(args, flag(o.Silent, "--no-progress", "--limit-output")...)
				return append(args, flag(o.Force, "--force")...)
			},
			update: func(id string, o Options) []string {
				args := []string{"upgrade", id, "-y"}
				args = append(args, flag(o.Silent, "--no-progress", "--limit-output")...)
				return append(args, flag(o.Force, "--force")...)
			},
			uninstall: func(id string, o Options) []string {
				args := []string{"uninstall", id, "-y"}
				args = append(args, flag(o.Silent, "--limit-output")...)
				return append(args, flag(o.Force, "--force")...)
			},
			list: func(id string) []string {
				return []string{"list", "--exact", id, "--limit-output"}
			},
		},
	}
}

// NewScoop returns the Scoop backend.
func NewScoop(r runner.Runner) Backend {
	return &cliBackend{
		name:       "scoop",
		executable: "scoop",
		runner:     r,
		cmds: commandSet{
			install: func(id string, _ Options) []string {
				return []string{"install", id}
			},
			update: func(id string, o Options) []string {
				return append([]string{"update", id}, flag(o.Force, "--force")...)
			},
			uninstall: func(id string, _ Options) []string {
				return []string{"uninstall", id}
			},
			list: func(id string) []string {
				return []string{"list", id}
			},
		},
	}
}

// NewBrew returns the Homebrew backend.
func NewBrew(r runner.Runner) Backend {
	return &cliBackend{
		name:       "brew",
		executable: "brew",
		runner:     r,
		cmds: commandSet{
			install: func(id string, o Options) []string {
				args := append([]string{"install", id}, flag(o.Silent, "--quiet")...)
				return append(args, flag(o.Force, "--force")...)
			},
			update: func(id string, o Options) []string {
				return append([]string{"upgrade", id}, flag(o.Silent, "--quiet")...)
			},
			uninstall: func(id string, o Options) []string {
				return append([]string{"uninstall", id}, flag(o.Force, "--force")...)
			},
			list: func(id string) []string {
				return []string{"list", "--versions", id}
			},
		},
	}
}
