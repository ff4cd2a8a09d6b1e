package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/log"

	"github.com/devkit-labs/devkit/internal/detect"
	"github.com/devkit-labs/devkit/internal/dispatch"
)

// StatusLine logs one outcome as it completes.
func StatusLine(l *log.Logger, o dispatch.Outcome) {
	for _, w := range o.Warnings {
		l.Warn(w, "tool", o.Tool)
	}
	switch {
	case o.UsageError:
		l.Error(o.Message)
	case o.Succeeded:
		Success(l, fmt.Sprintf("%s %s: %s", o.Tool, o.Action, o.Message))
	default:
		l.Error(fmt.Sprintf("%s %s failed", o.Tool, o.Action), "err", o.Message)
	}
	if o.Provision != nil {
		for _, a := range o.Provision.Attempts {
			l.Debug("backend attempt", "tool", o.Tool, "backend", a.Backend, "skipped", a.Skipped, "exit", a.ExitCode, "reason", a.Reason)
		}
	}
	for _, t := range o.Tests {
		if t.Passed {
			l.Debug("test passed", "tool", o.Tool, "command", t.Command)
		} else {
			l.Warn("test failed", "tool", o.Tool, "command", t.Command, "reason", t.Reason)
		}
	}
}

// WriteReport writes the per-tool table and the summary line.
func WriteReport(w io.Writer, rep dispatch.Report, detailed bool) {
	st := newStyles(w)
	if len(rep.Outcomes) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		header := "TOOL\tRESULT\tVERSION\tBACKEND\tMESSAGE"
		if detailed {
			header += "\tLOCATION"
		}
		fmt.Fprintln(tw, header)
		for _, o := range rep.Outcomes {
			fmt.Fprintln(tw, row(o, detailed))
		}
		tw.Flush()
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, summaryLine(st, rep))
}

func row(o dispatch.Outcome, detailed bool) string {
	result := "ok"
	switch {
	case o.UsageError:
		result = "unknown"
	case !o.Succeeded:
		result = "failed"
	case len(o.Warnings) > 0:
		result = "warn"
	}

	var version, location string
	if o.Detection != nil {
		version = o.Detection.Version
		location = o.Detection.Location()
		if o.Detection.Status == detect.NotFound {
			version = "-"
		}
	}
	backendUsed := ""
	if o.Provision != nil {
		backendUsed = o.Provision.BackendUsed
	}

	cols := []string{o.Tool, result, dash(version), dash(backendUsed), oneLine(o.Message)}
	if detailed {
		cols = append(cols, dash(location))
	}
	return strings.Join(cols, "\t")
}

// summaryLine renders "<action>: N attempted (N succeeded, N failed, N unknown)".
func summaryLine(st styles, rep dispatch.Report) string {
	s := rep.Summary
	parts := []string{
		st.ok.Render(fmt.Sprintf("%d succeeded", s.Succeeded)),
	}
	failed := fmt.Sprintf("%d failed", s.Failed)
	if s.Failed > 0 {
		failed = st.fail.Render(failed)
	}
	parts = append(parts, failed)
	if s.UsageErrors > 0 {
		parts = append(parts, st.warn.Render(fmt.Sprintf("%d unknown", s.UsageErrors)))
	}
	head := st.bold.Render(fmt.Sprintf("%s: %d attempted", rep.Action, s.Attempted))
	return head + " (" + strings.Join(parts, ", ") + ")"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func oneLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
