package detect

import (
	"context"
	"fmt"
	"regexp"

	"github.com/devkit-labs/devkit/internal/registry"
	"github.com/devkit-labs/devkit/internal/runner"
)

// TestOutcome is the result of one smoke test.
type TestOutcome struct {
	Command  string `json:"command"`
	Passed   bool   `json:"passed"`
	ExitCode int    `json:"exit_code"`
	Output   string `json:"output,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// RunTests executes the descriptor's smoke tests in order. A test passes
// when the command exits 0 and its output matches Expect.
func (d *Detector) RunTests(ctx context.Context, desc registry.ToolDescriptor) []TestOutcome {
	outcomes := make([]TestOutcome, 0, len(desc.TestCommands))
	for _, tc := range desc.TestCommands {
		outcomes = append(outcomes, d.runTest(ctx, tc))
	}
	return outcomes
}

func (d *Detector) runTest(ctx context.Context, tc registry.TestCommand) TestOutcome {
	outcome := TestOutcome{Command: tc.String()}

	var expect *regexp.Regexp
	if tc.Expect != "" {
		re, err := regexp.Compile(tc.Expect)
		if err != nil {
			outcome.Reason = fmt.Sprintf("invalid expect pattern: %v", err)
			return outcome
		}
		expect = re
	}

	out, err := runner.RunTimeout(ctx, d.runner, d.probeTimeout, tc.Command, tc.Args...)
	if out != nil {
		outcome.ExitCode = out.ExitCode
		outcome.Output = out.FirstLine()
	}
	switch {
	case err != nil:
		outcome.Reason = err.Error()
	case out.ExitCode != 0:
		outcome.Reason = fmt.Sprintf("exit code %d", out.ExitCode)
	case expect != nil && !expect.MatchString(out.Combined()):
		outcome.Reason = fmt.Sprintf("output does not match %q", tc.Expect)
	default:
		outcome.Passed = true
	}
	return outcome
}
