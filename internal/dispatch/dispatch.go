package dispatch

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/devkit-labs/devkit/internal/detect"
	"github.com/devkit-labs/devkit/internal/provision"
	"github.com/devkit-labs/devkit/internal/registry"
	"github.com/devkit-labs/devkit/internal/toolerr"
)

// Detector is the detection capability the dispatcher uses.
type Detector interface {
	Detect(ctx context.Context, desc registry.ToolDescriptor) detect.Result
	RunTests(ctx context.Context, desc registry.ToolDescriptor) []detect.TestOutcome
}

// Provisioner is the state-changing capability the dispatcher uses.
type Provisioner interface {
	Provision(ctx context.Context, desc registry.ToolDescriptor, action provision.Action, opts provision.Options) provision.Result
}

// Request is one CLI invocation.
type Request struct {
	// Targets are tool or group names. Ignored when All is set.
	Targets []string
	// All selects every registered tool.
	All bool
	// Group selects a group in addition to Targets.
	Group   string
	Action  Action
	Options provision.Options
}

// Outcome is the result of applying an action to one tool, or a usage
// error for a target that resolved to nothing.
type Outcome struct {
	Tool       string                   `json:"tool"`
	Action     Action                   `json:"action"`
	Succeeded  bool                     `json:"succeeded"`
	Message    string                   `json:"message"`
	UsageError bool                     `json:"usage_error,omitempty"`
	Warnings   []string                 `json:"warnings,omitempty"`
	Detection  *detect.Result           `json:"detection,omitempty"`
	Provision  *provision.Result        `json:"provision,omitempty"`
	Tests      []detect.TestOutcome     `json:"tests,omitempty"`
	Descriptor *registry.ToolDescriptor `json:"-"`
	Err        error                    `json:"-"`
}

// Summary aggregates a batch.
type Summary struct {
	Attempted   int `json:"attempted"`
	Succeeded   int `json:"succeeded"`
	Failed      int `json:"failed"`
	UsageErrors int `json:"usage_errors"`
}

// OK reports whether every attempted tool succeeded and no usage error
// occurred.
func (s Summary) OK() bool {
	return s.Failed == 0 && s.UsageErrors == 0
}

// Report is the full result of a Run.
type Report struct {
	Action   Action    `json:"action"`
	Outcomes []Outcome `json:"outcomes"`
	Summary  Summary   `json:"summary"`
}

// Dispatcher runs requests against a registry.
type Dispatcher struct {
	registry    *registry.Registry
	detector    Detector
	provisioner Provisioner
	logger      *log.Logger

	// OnOutcome, when set, is called after each outcome is recorded.
	OnOutcome func(Outcome)
}

// New creates a Dispatcher. A nil logger discards status lines.
func New(reg *registry.Registry, det Detector, prov Provisioner, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Dispatcher{registry: reg, detector: det, provisioner: prov, logger: logger}
}

// step is one entry of a resolved request: a tool to act on, or an
// UnknownTarget error for a target that matched nothing.
type step struct {
	desc registry.ToolDescriptor
	err  *toolerr.Error
}

// Resolve expands the request targets into descriptors, in first-seen
// order without duplicates. Targets that match nothing are returned as
// UnknownTarget errors.
func (d *Dispatcher) Resolve(req Request) ([]registry.ToolDescriptor, []*toolerr.Error) {
	var (
		out  []registry.ToolDescriptor
		errs []*toolerr.Error
	)
	for _, st := range d.plan(req) {
		if st.err != nil {
			errs = append(errs, st.err)
			continue
		}
		out = append(out, st.desc)
	}
	return out, errs
}

// plan resolves targets in input order. A group expands in place to its
// members; tools already planned are skipped.
func (d *Dispatcher) plan(req Request) []step {
	var targets []string
	switch {
	case req.All:
		targets = []string{registry.AllTarget}
	default:
		if req.Group != "" {
			targets = append(targets, req.Group)
		}
		targets = append(targets, req.Targets...)
	}

	var (
		steps []step
		seen  = make(map[string]bool)
	)
	for _, target := range targets {
		var (
			descs []registry.ToolDescriptor
			err   error
		)
		if req.Group != "" && target == req.Group && !req.All {
			descs, err = d.registry.ResolveGroup(target)
		} else {
			descs, err = d.registry.Resolve(target)
		}
		if err != nil {
			steps = append(steps, step{err: &toolerr.Error{Kind: toolerr.UnknownTarget, Tool: target, Cause: err}})
			continue
		}
		for _, desc := range descs {
			if seen[desc.Name] {
				continue
			}
			seen[desc.Name] = true
			steps = append(steps, step{desc: desc})
		}
	}
	return steps
}

// Run resolves the request and applies its action to each tool in turn.
// Outcomes, including usage errors for unknown targets, follow the order
// the targets were given in.
func (d *Dispatcher) Run(ctx context.Context, req Request) Report {
	rep := Report{Action: req.Action}
	steps := d.plan(req)
	if len(steps) == 0 {
		d.logger.Warn("nothing to do: no tools selected")
	}

	for _, st := range steps {
		switch {
		case st.err != nil:
			d.record(&rep, Outcome{
				Tool:       st.err.Tool,
				Action:     req.Action,
				Message:    st.err.Cause.Error(),
				UsageError: true,
				Err:        st.err,
			})
		case ctx.Err() != nil:
			d.record(&rep, failed(st.desc, req.Action, toolerr.Wrap(toolerr.ProbeFailed, st.desc.Name, ctx.Err())))
		default:
			d.record(&rep, d.apply(ctx, st.desc, req))
		}
	}
	return rep
}

func (d *Dispatcher) record(rep *Report, o Outcome) {
	switch {
	case o.UsageError:
		rep.Summary.UsageErrors++
	case o.Succeeded:
		rep.Summary.Attempted++
		rep.Summary.Succeeded++
	default:
		rep.Summary.Attempted++
		rep.Summary.Failed++
	}
	rep.Outcomes = append(rep.Outcomes, o)
	if d.OnOutcome != nil {
		d.OnOutcome(o)
	}
}

func (d *Dispatcher) apply(ctx context.Context, desc registry.ToolDescriptor, req Request) Outcome {
	if pa, ok := req.Action.Provisioning(); ok {
		return d.provision(ctx, desc, req, pa)
	}

	switch req.Action {
	case Status:
		return d.status(ctx, desc)
	case Test:
		return d.test(ctx, desc)
	case Check:
		return d.check(ctx, desc)
	case Help:
		return d.help(ctx, desc)
	case Install, Update, Uninstall:
		// handled above
	}
	return failed(desc, req.Action, fmt.Errorf("unsupported action %v", req.Action))
}

func (d *Dispatcher) provision(ctx context.Context, desc registry.ToolDescriptor, req Request, pa provision.Action) Outcome {
	d.logger.Debug("provisioning", "tool", desc.Name, "action", pa, "force", req.Options.Force)
	res := d.provisioner.Provision(ctx, desc, pa, req.Options)
	det := res.Detection
	return Outcome{
		Tool:      desc.Name,
		Action:    req.Action,
		Succeeded: res.Succeeded,
		Message:   res.Message,
		Detection: &det,
		Provision: &res,
		Err:       res.Err,
	}
}

func (d *Dispatcher) status(ctx context.Context, desc registry.ToolDescriptor) Outcome {
	det := d.detector.Detect(ctx, desc)
	o := Outcome{Tool: desc.Name, Action: Status, Detection: &det, Succeeded: det.Status != detect.Error}
	switch det.Status {
	case detect.Verified:
		o.Message = "installed" + suffix(det.Version)
	case detect.NotFound:
		o.Message = "not installed"
	default:
		o.Message = det.ErrorMessage
		o.Err = toolerr.New(toolerr.ProbeFailed, desc.Name, "%s", det.ErrorMessage)
	}
	return o
}

func (d *Dispatcher) test(ctx context.Context, desc registry.ToolDescriptor) Outcome {
	det := d.detector.Detect(ctx, desc)
	o := Outcome{Tool: desc.Name, Action: Test, Detection: &det}
	if !det.Installed {
		return withErr(o, notInstalled(desc, det))
	}
	if len(desc.TestCommands) == 0 {
		o.Succeeded = true
		o.Message = "installed; no smoke tests declared"
		return o
	}

	o.Tests = d.detector.RunTests(ctx, desc)
	var failedCmds []string
	for _, t := range o.Tests {
		if !t.Passed {
			failedCmds = append(failedCmds, fmt.Sprintf("%s (%s)", t.Command, t.Reason))
		}
	}
	if len(failedCmds) > 0 {
		return withErr(o, toolerr.New(toolerr.CheckFailed, desc.Name, "%d of %d tests failed: %s",
			len(failedCmds), len(o.Tests), strings.Join(failedCmds, "; ")))
	}
	o.Succeeded = true
	o.Message = fmt.Sprintf("%d tests passed", len(o.Tests))
	return o
}

func (d *Dispatcher) check(ctx context.Context, desc registry.ToolDescriptor) Outcome {
	det := d.detector.Detect(ctx, desc)
	o := Outcome{Tool: desc.Name, Action: Check, Detection: &det}
	if !det.Installed {
		return withErr(o, notInstalled(desc, det))
	}
	o.Succeeded = true
	o.Message = "installed" + suffix(det.Version)
	if desc.MinVersion == "" {
		return o
	}

	ok, err := detect.SatisfiesMin(det.Version, desc.MinVersion)
	switch {
	case err != nil:
		o.Warnings = append(o.Warnings, fmt.Sprintf("cannot verify %s: %v", desc.MinVersion, err))
	case !ok:
		return withErr(o, toolerr.New(toolerr.CheckFailed, desc.Name, "outdated: %s does not satisfy %s", det.Version, desc.MinVersion))
	default:
		o.Message += ", satisfies " + desc.MinVersion
	}
	return o
}

func (d *Dispatcher) help(ctx context.Context, desc registry.ToolDescriptor) Outcome {
	det := d.detector.Detect(ctx, desc)
	state := "not installed"
	if det.Installed {
		state = "installed" + suffix(det.Version)
	}
	return Outcome{
		Tool:       desc.Name,
		Action:     Help,
		Succeeded:  true,
		Message:    state,
		Detection:  &det,
		Descriptor: &desc,
	}
}

func notInstalled(desc registry.ToolDescriptor, det detect.Result) *toolerr.Error {
	if det.Status == detect.Error {
		return toolerr.New(toolerr.ProbeFailed, desc.Name, "%s", det.ErrorMessage)
	}
	return toolerr.New(toolerr.NotInstalled, desc.Name, "%s is not installed", desc.Label())
}

func withErr(o Outcome, err *toolerr.Error) Outcome {
	o.Succeeded = false
	o.Err = err
	o.Message = err.Message
	return o
}

func failed(desc registry.ToolDescriptor, action Action, err error) Outcome {
	return Outcome{Tool: desc.Name, Action: action, Message: err.Error(), Err: err}
}

func suffix(version string) string {
	if version == "" {
		return ""
	}
	return " (" + version + ")"
}
