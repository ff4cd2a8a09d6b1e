package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/devkit-labs/devkit/internal/backend"
	"github.com/devkit-labs/devkit/internal/config"
	"github.com/devkit-labs/devkit/internal/detect"
	"github.com/devkit-labs/devkit/internal/dispatch"
	"github.com/devkit-labs/devkit/internal/manifest"
	"github.com/devkit-labs/devkit/internal/provision"
	"github.com/devkit-labs/devkit/internal/registry"
	"github.com/devkit-labs/devkit/internal/report"
	"github.com/devkit-labs/devkit/internal/runner"
	"github.com/spf13/cobra"
)

// newRunner builds the subprocess runner. Tests replace it with a mock.
var newRunner = func(stderr io.Writer) runner.Runner {
	r := runner.NewExec()
	if detailedFlag {
		r.Stdout = stderr
		r.Stderr = stderr
	}
	return r
}

// app is the wiring for one invocation: settings, registry and the
// detection and provisioning services built from them.
type app struct {
	settings    config.Settings
	registry    *registry.Registry
	logger      *log.Logger
	detector    *detect.Detector
	provisioner *provision.Provisioner
}

func loadRegistry() (config.Settings, *registry.Registry, error) {
	config.Load()
	s := config.Current()
	reg, err := manifest.Load(s.CatalogPath)
	if err != nil {
		return s, nil, fmt.Errorf("loading catalog: %w", err)
	}
	return s, reg, nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	s, reg, err := loadRegistry()
	if err != nil {
		return nil, err
	}

	logger := report.NewLogger(cmd.ErrOrStderr(), verbosity())
	r := newRunner(cmd.ErrOrStderr())

	det := detect.New(r,
		detect.WithProbeTimeout(s.ProbeTimeout),
		detect.WithLogger(logger),
	)
	backends, err := backend.Ordered(s.Backends, r)
	if err != nil {
		return nil, fmt.Errorf("configuring backends: %w", err)
	}
	prov := provision.New(det, backends,
		provision.WithSettle(provision.SettlePolicy{Attempts: s.SettleAttempts, Backoff: s.SettleBackoff}),
		provision.WithLogger(logger),
		provision.WithQueryTimeout(s.ProbeTimeout),
	)

	return &app{
		settings:    s,
		registry:    reg,
		logger:      logger,
		detector:    det,
		provisioner: prov,
	}, nil
}

func verbosity() report.Verbosity {
	switch {
	case detailedFlag:
		return report.Detailed
	case quietFlag || jsonFlag:
		return report.Quiet
	default:
		return report.Normal
	}
}

// runRequest dispatches req and renders the report. A batch with any
// failure or usage error returns an ExitError with code 1.
func runRequest(cmd *cobra.Command, req dispatch.Request) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	req.Options = provision.Options{
		Force:   forceFlag,
		Silent:  silentFlag,
		Timeout: a.settings.ProvisionTimeout,
	}

	d := dispatch.New(a.registry, a.detector, a.provisioner, a.logger)
	d.OnOutcome = func(o dispatch.Outcome) { report.StatusLine(a.logger, o) }
	rep := d.Run(cmd.Context(), req)

	out := cmd.OutOrStdout()
	switch {
	case jsonFlag:
		if err := report.WriteJSON(out, rep); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	case req.Action == dispatch.Help:
		for i, o := range rep.Outcomes {
			if o.Descriptor == nil {
				continue
			}
			if i > 0 {
				fmt.Fprintln(out)
			}
			report.WriteHelp(out, *o.Descriptor, a.registry.GroupsOf(o.Tool), o.Detection)
		}
	default:
		report.WriteReport(out, rep, detailedFlag)
	}

	if !rep.Summary.OK() {
		return &ExitError{Code: 1}
	}
	return nil
}
