package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Runner resolves and executes external commands.
type Runner interface {
	// LookPath resolves name against the execution PATH.
	LookPath(name string) (string, error)
	// Run executes name with args. A non-zero exit is reported through
	// Output.ExitCode, not as an error; the error return is reserved for
	// commands that could not start or were stopped by ctx.
	Run(ctx context.Context, name string, args ...string) (*Output, error)
}

// Output captures the result of a command execution.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Combined returns stdout followed by stderr.
func (o *Output) Combined() string {
	if o == nil {
		return ""
	}
	if o.Stderr == "" {
		return o.Stdout
	}
	if o.Stdout == "" {
		return o.Stderr
	}
	return o.Stdout + "\n" + o.Stderr
}

// FirstLine returns the first non-empty line of the combined output.
func (o *Output) FirstLine() string {
	for _, line := range strings.Split(o.Combined(), "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}

// Exec runs real processes.
type Exec struct {
	// Stdout and Stderr, when set, receive a live copy of the child's output
	// in addition to the captured buffers.
	Stdout io.Writer
	Stderr io.Writer
}

// NewExec returns an Exec runner that only captures output.
func NewExec() *Exec {
	return &Exec{}
}

// LookPath resolves name with exec.LookPath.
func (e *Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Run executes the command and waits for it to exit or for ctx to end.
func (e *Exec) Run(ctx context.Context, name string, args ...string) (*Output, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	// Avoid pagers and colored output in captured text.
	cmd.Env = append(os.Environ(), "NO_COLOR=1")
	cmd.WaitDelay = 2 * time.Second

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	if e.Stdout != nil {
		cmd.Stdout = io.MultiWriter(e.Stdout, &stdoutBuf)
	}
	if e.Stderr != nil {
		cmd.Stderr = io.MultiWriter(e.Stderr, &stderrBuf)
	}

	err := cmd.Run()

	output := &Output{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		output.ExitCode = -1
		return output, fmt.Errorf("running %s: %w", name, ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			output.ExitCode = exitErr.ExitCode()
			return output, nil
		}
		output.ExitCode = -1
		return output, fmt.Errorf("running %s: %w", name, err)
	}
	return output, nil
}

// RunTimeout runs a command through r bounded by timeout. A zero timeout
// leaves ctx unchanged.
func RunTimeout(ctx context.Context, r Runner, timeout time.Duration, name string, args ...string) (*Output, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return r.Run(ctx, name, args...)
}
