package detect

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/devkit-labs/devkit/internal/registry"
	"github.com/devkit-labs/devkit/internal/runner"
)

// DefaultProbeTimeout bounds a single version probe or smoke test.
const DefaultProbeTimeout = 10 * time.Second

// OSProbe is the last link of the probe chain. It reports an install
// location and, when the OS records one, a version.
type OSProbe interface {
	Lookup(desc registry.ToolDescriptor) (installPath, version string, found bool)
}

// Detector runs the probe chain for tool descriptors.
type Detector struct {
	runner       runner.Runner
	probeTimeout time.Duration
	osProbe      OSProbe
	logger       *log.Logger
	getenv       func(string) string
}

// Option configures a Detector.
type Option func(*Detector)

// WithProbeTimeout bounds version probes and smoke tests.
func WithProbeTimeout(d time.Duration) Option {
	return func(det *Detector) { det.probeTimeout = d }
}

// WithOSProbe replaces the platform probe. nil disables it.
func WithOSProbe(p OSProbe) Option {
	return func(det *Detector) { det.osProbe = p }
}

// WithLogger sets the logger used for debug tracing of probes.
func WithLogger(l *log.Logger) Option {
	return func(det *Detector) { det.logger = l }
}

// WithGetenv replaces the environment lookup used to expand common paths.
func WithGetenv(fn func(string) string) Option {
	return func(det *Detector) { det.getenv = fn }
}

// New creates a Detector that spawns probes through r.
func New(r runner.Runner, opts ...Option) *Detector {
	d := &Detector{
		runner:       r,
		probeTimeout: DefaultProbeTimeout,
		osProbe:      platformProbe(),
		logger:       log.New(io.Discard),
		getenv:       os.Getenv,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect runs the probe chain for desc. It never panics and never returns
// an error: failures are reported as Status Error with ErrorMessage set.
func (d *Detector) Detect(ctx context.Context, desc registry.ToolDescriptor) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{
				Tool:         desc.Name,
				Status:       Error,
				ErrorMessage: fmt.Sprintf("detection panicked: %v", r),
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		return Result{Tool: desc.Name, Status: Error, ErrorMessage: err.Error()}
	}

	res = Result{Tool: desc.Name, Status: NotChecked}
	var osVersion string

	if path, ok := d.lookPath(desc); ok {
		res.ExecutablePath = path
		res.InstallPath = filepath.Dir(path)
		res.Source = SourcePath
	} else if path, isFile, ok := d.commonPath(desc); ok {
		res.InstallPath = path
		if isFile {
			res.ExecutablePath = path
		}
		res.Source = SourceCommonPath
	} else if d.osProbe != nil {
		if path, version, found := d.osProbe.Lookup(desc); found {
			res.InstallPath = path
			res.Source = SourceOS
			osVersion = version
		}
	}

	if res.Source == SourceNone {
		d.logger.Debug("not found", "tool", desc.Name)
		res.Status = NotFound
		return res
	}

	res.Installed = true
	res.Status = Verified
	res.Version = d.probeVersion(ctx, desc, res.ExecutablePath, osVersion)
	d.logger.Debug("detected", "tool", desc.Name, "source", res.Source, "path", res.Location(), "version", res.Version)
	return res
}

func (d *Detector) lookPath(desc registry.ToolDescriptor) (string, bool) {
	for _, name := range desc.ExecutableNames {
		path, err := d.runner.LookPath(name)
		if err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		return path, true
	}
	return "", false
}

func (d *Detector) commonPath(desc registry.ToolDescriptor) (path string, isFile, ok bool) {
	for _, pattern := range desc.CommonPaths {
		expanded, ok := ExpandPath(pattern, d.getenv)
		if !ok {
			continue
		}
		matches, err := filepath.Glob(expanded)
		if err != nil {
			d.logger.Debug("bad common path pattern", "tool", desc.Name, "pattern", pattern, "err", err)
			continue
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				continue
			}
			return m, info.Mode().IsRegular(), true
		}
	}
	return "", false, false
}

// probeVersion runs the version probe. Any failure yields VersionUnknown;
// a descriptor without a probe reports the OS-recorded version, if any.
func (d *Detector) probeVersion(ctx context.Context, desc registry.ToolDescriptor, executable, osVersion string) string {
	probe := desc.VersionProbe
	if probe == nil {
		return osVersion
	}

	command := probe.Command
	if command == "" || (executable != "" && sameExecutable(command, executable)) {
		command = executable
	}
	if command == "" {
		if osVersion != "" {
			return osVersion
		}
		return VersionUnknown
	}

	out, err := runner.RunTimeout(ctx, d.runner, d.probeTimeout, command, probe.Args...)
	if err != nil {
		d.logger.Debug("version probe failed", "tool", desc.Name, "err", err)
		return VersionUnknown
	}
	if out.ExitCode != 0 {
		d.logger.Debug("version probe exited non-zero", "tool", desc.Name, "exit", out.ExitCode)
		return VersionUnknown
	}
	return ParseVersion(probe.Parser, probe.Pattern, out.Combined())
}

func sameExecutable(command, path string) bool {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.EqualFold(command, base) || strings.EqualFold(command, filepath.Base(path))
}
