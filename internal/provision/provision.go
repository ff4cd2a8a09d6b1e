package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/devkit-labs/devkit/internal/backend"
	"github.com/devkit-labs/devkit/internal/detect"
	"github.com/devkit-labs/devkit/internal/registry"
	"github.com/devkit-labs/devkit/internal/runner"
	"github.com/devkit-labs/devkit/internal/toolerr"
)

// Detector is the detection capability the provisioner depends on.
type Detector interface {
	Detect(ctx context.Context, desc registry.ToolDescriptor) detect.Result
}

// SettlePolicy bounds post-change confirmation. Detection runs up to
// Attempts times, waiting Backoff*n after the n-th miss.
type SettlePolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultSettle is used when no policy is configured.
var DefaultSettle = SettlePolicy{Attempts: 3, Backoff: 2 * time.Second}

// Provisioner applies state-changing actions through backends.
type Provisioner struct {
	detector Detector
	backends []backend.Backend
	settle   SettlePolicy
	sleep    func(ctx context.Context, d time.Duration) error
	logger   *log.Logger

	// queryTimeout bounds the ownership query run before Update and Uninstall.
	queryTimeout time.Duration
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithSettle sets the confirmation policy.
func WithSettle(p SettlePolicy) Option {
	return func(pr *Provisioner) { pr.settle = p }
}

// WithLogger sets the status-line logger.
func WithLogger(l *log.Logger) Option {
	return func(pr *Provisioner) { pr.logger = l }
}

// WithQueryTimeout bounds each backend ownership query.
func WithQueryTimeout(d time.Duration) Option {
	return func(pr *Provisioner) { pr.queryTimeout = d }
}

// WithSleep replaces the wait between confirmation attempts.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(pr *Provisioner) { pr.sleep = fn }
}

// New creates a Provisioner trying backends in the given order.
func New(det Detector, backends []backend.Backend, opts ...Option) *Provisioner {
	p := &Provisioner{
		detector: det,
		backends: backends,
		settle:   DefaultSettle,
		sleep:    sleepContext,
		logger:   log.New(io.Discard),

		queryTimeout: detect.DefaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	// The first detection after a change counts as an attempt; at least one
	// retry must follow it.
	if p.settle.Attempts < 2 {
		p.settle.Attempts = 2
	}
	if p.settle.Backoff < 0 {
		p.settle.Backoff = 0
	}
	return p
}

// Backends returns the backend names in priority order.
func (p *Provisioner) Backends() []string {
	names := make([]string, len(p.backends))
	for i, b := range p.backends {
		names[i] = b.Name()
	}
	return names
}

// Provision performs action on desc. It does not return an error; failures
// are reported in the Result with Err set to a *toolerr.Error.
func (p *Provisioner) Provision(ctx context.Context, desc registry.ToolDescriptor, action Action, opts Options) Result {
	res := Result{Tool: desc.Name, Action: action}

	switch action {
	case Install:
		pre := p.detector.Detect(ctx, desc)
		res.Detection = pre
		if pre.Installed && !opts.Force {
			res.Succeeded = true
			res.Message = "already installed" + versionSuffix(pre.Version)
			return res
		}
	case Update:
		pre := p.detector.Detect(ctx, desc)
		res.Detection = pre
		if !pre.Installed {
			return p.fail(res, toolerr.New(toolerr.NotInstalled, desc.Name, "%s is not installed; install it first", desc.Label()))
		}
	case Uninstall:
	default:
		return p.fail(res, fmt.Errorf("unsupported action %v", action))
	}

	return p.runBackends(ctx, desc, action, opts, res)
}

func (p *Provisioner) runBackends(ctx context.Context, desc registry.ToolDescriptor, action Action, opts Options, res Result) Result {
	var lastErr *toolerr.Error
	bopts := backend.Options{Force: opts.Force, Silent: opts.Silent}

	for _, b := range p.backends {
		if err := ctx.Err(); err != nil {
			return p.fail(res, toolerr.Wrap(toolerr.BackendUnavailable, desc.Name, err))
		}

		name := b.Name()
		if reason := p.skipReason(ctx, b, desc, action, opts.Timeout); reason != "" {
			p.logger.Debug("skipping backend", "tool", desc.Name, "backend", name, "reason", reason)
			res.Attempts = append(res.Attempts, Attempt{Backend: name, Skipped: true, Reason: reason})
			continue
		}

		p.logger.Info(fmt.Sprintf("%s %s via %s", progressVerb(action), desc.Label(), name))
		out, err := p.invoke(ctx, b, desc, action, bopts, opts.Timeout)
		if errors.Is(err, backend.ErrNotDeclared) {
			res.Attempts = append(res.Attempts, Attempt{Backend: name, Skipped: true, Reason: "no " + action.String() + " command declared"})
			continue
		}

		attempt := Attempt{Backend: name}
		if out != nil {
			attempt.ExitCode = out.ExitCode
		}
		switch {
		case err != nil:
			attempt.Reason = err.Error()
			lastErr = &toolerr.Error{Kind: toolerr.BackendExitNonZero, Tool: desc.Name, Backend: name, ExitCode: attempt.ExitCode, Cause: err}
		case out.ExitCode != 0:
			attempt.Reason = fmt.Sprintf("exit code %d", out.ExitCode)
			lastErr = &toolerr.Error{
				Kind:     toolerr.BackendExitNonZero,
				Tool:     desc.Name,
				Backend:  name,
				ExitCode: out.ExitCode,
				Message:  fmt.Sprintf("%s %s exited with code %d%s", name, action, out.ExitCode, outputSuffix(out)),
			}
		}
		res.Attempts = append(res.Attempts, attempt)
		if attempt.Reason != "" {
			p.logger.Warn(fmt.Sprintf("%s %s failed: %s", name, action, attempt.Reason), "tool", desc.Name)
			continue
		}

		res.BackendUsed = name
		return p.confirm(ctx, desc, action, res)
	}

	if lastErr != nil {
		return p.fail(res, lastErr)
	}
	return p.fail(res, toolerr.New(toolerr.BackendUnavailable, desc.Name,
		"no eligible backend for %s (tried: %s)", action, strings.Join(p.Backends(), ", ")))
}

// skipReason returns why b cannot serve this request, or "" if it can.
// The ownership query is bounded by the shorter of the query timeout and
// the operation timeout.
func (p *Provisioner) skipReason(ctx context.Context, b backend.Backend, desc registry.ToolDescriptor, action Action, timeout time.Duration) string {
	if !b.Supports(desc) {
		return "no package declared"
	}
	if !b.Available(ctx) {
		return "not available on this host"
	}
	if action == Install {
		return ""
	}
	if p.queryTimeout > 0 && (timeout <= 0 || p.queryTimeout < timeout) {
		timeout = p.queryTimeout
	}
	qctx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	has, err := b.Has(qctx, desc)
	if err != nil {
		p.logger.Debug("ownership query failed", "tool", desc.Name, "backend", b.Name(), "err", err)
		return ""
	}
	if !has {
		return "does not manage this tool"
	}
	return ""
}

func (p *Provisioner) invoke(ctx context.Context, b backend.Backend, desc registry.ToolDescriptor, action Action, opts backend.Options, timeout time.Duration) (*runner.Output, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	switch action {
	case Install:
		return b.Install(ctx, desc, opts)
	case Update:
		return b.Update(ctx, desc, opts)
	default:
		return b.Uninstall(ctx, desc, opts)
	}
}

// confirm re-runs detection until it agrees with the action or the settle
// window is exhausted.
func (p *Provisioner) confirm(ctx context.Context, desc registry.ToolDescriptor, action Action, res Result) Result {
	wantInstalled := action != Uninstall

	for attempt := 1; attempt <= p.settle.Attempts; attempt++ {
		det := p.detector.Detect(ctx, desc)
		res.Detection = det
		if det.Installed == wantInstalled {
			res.Succeeded = true
			res.Message = successMessage(action, res.BackendUsed, det.Version)
			return res
		}
		if attempt == p.settle.Attempts {
			break
		}

		wait := p.settle.Backoff * time.Duration(attempt)
		p.logger.Debug("waiting for change to settle", "tool", desc.Name, "attempt", attempt, "wait", wait)
		if err := p.sleep(ctx, wait); err != nil {
			return p.fail(res, &toolerr.Error{Kind: toolerr.ConfirmationFailed, Tool: desc.Name, Backend: res.BackendUsed, Cause: err})
		}
	}

	state := "not detected"
	if !wantInstalled {
		state = "still detected"
	}
	return p.fail(res, &toolerr.Error{
		Kind:    toolerr.ConfirmationFailed,
		Tool:    desc.Name,
		Backend: res.BackendUsed,
		Message: fmt.Sprintf("%s reported success but %s is %s after %d checks", res.BackendUsed, desc.Label(), state, p.settle.Attempts),
	})
}

// withTimeout derives a context bounded by d; d <= 0 means unbounded.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (p *Provisioner) fail(res Result, err error) Result {
	res.Succeeded = false
	res.Err = err
	res.Message = err.Error()
	return res
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func successMessage(action Action, backendName, version string) string {
	var verb string
	switch action {
	case Install:
		verb = "installed"
	case Update:
		verb = "updated"
	default:
		verb = "uninstalled"
	}
	msg := verb + " via " + backendName
	if action != Uninstall {
		msg += versionSuffix(version)
	}
	return msg
}

func progressVerb(action Action) string {
	switch action {
	case Install:
		return "Installing"
	case Update:
		return "Updating"
	default:
		return "Uninstalling"
	}
}

func versionSuffix(version string) string {
	if version == "" || version == detect.VersionUnknown {
		return ""
	}
	return " (" + version + ")"
}

func outputSuffix(out *runner.Output) string {
	line := strings.TrimSpace(out.Stderr)
	if line == "" {
		return ""
	}
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return ": " + line
}
