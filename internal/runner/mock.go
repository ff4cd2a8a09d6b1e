package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Mock implements Runner for tests.
//
// Commands are keyed by their base name without a .exe suffix, so
// "/usr/bin/git" and "git.exe" both match responses registered for "git".
type Mock struct {
	// Paths maps a command name to the path LookPath returns for it.
	Paths map[string]string
	// LookPathFunc, when set, replaces the Paths lookup.
	LookPathFunc func(name string) (string, error)
	// Responses maps "name arg1 arg2" prefixes to scripted output.
	// The longest matching prefix wins.
	Responses map[string]Response
	// Errors maps prefixes to start errors, checked before Responses.
	Errors map[string]error
	// OnRun is invoked after each call is recorded.
	OnRun func(call Call)

	Calls   []Call
	Lookups []string
}

// Response is scripted command output.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Call records one Run invocation.
type Call struct {
	Name string
	Args []string
}

// String renders the call as "name arg1 arg2".
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// NewMock creates an empty mock runner.
func NewMock() *Mock {
	return &Mock{
		Paths:     make(map[string]string),
		Responses: make(map[string]Response),
		Errors:    make(map[string]error),
	}
}

// Provide makes name resolvable on the mock PATH.
func (m *Mock) Provide(names ...string) {
	for _, name := range names {
		m.Paths[name] = "/usr/bin/" + name
	}
}

// Remove makes name unresolvable again.
func (m *Mock) Remove(name string) {
	delete(m.Paths, name)
}

// LookPath resolves name from Paths or LookPathFunc.
func (m *Mock) LookPath(name string) (string, error) {
	m.Lookups = append(m.Lookups, name)
	if m.LookPathFunc != nil {
		return m.LookPathFunc(name)
	}
	if p, ok := m.Paths[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
}

// Run records the call and returns the scripted response.
func (m *Mock) Run(ctx context.Context, name string, args ...string) (*Output, error) {
	call := Call{Name: commandKey(name), Args: append([]string(nil), args...)}
	m.Calls = append(m.Calls, call)
	if m.OnRun != nil {
		m.OnRun(call)
	}
	if err := ctx.Err(); err != nil {
		return &Output{ExitCode: -1}, err
	}

	key := call.String()
	if err, ok := longestPrefix(m.Errors, key); ok {
		return &Output{ExitCode: -1}, err
	}
	if resp, ok := longestPrefix(m.Responses, key); ok {
		return &Output{ExitCode: resp.ExitCode, Stdout: resp.Stdout, Stderr: resp.Stderr}, nil
	}
	return &Output{}, nil
}

// CallsTo returns recorded calls whose rendered form starts with prefix.
func (m *Mock) CallsTo(prefix string) []Call {
	var out []Call
	for _, c := range m.Calls {
		if strings.HasPrefix(c.String(), prefix) {
			out = append(out, c)
		}
	}
	return out
}

func longestPrefix[V any](table map[string]V, key string) (V, bool) {
	var (
		best    V
		bestLen = -1
	)
	for pattern, v := range table {
		if (key == pattern || strings.HasPrefix(key, pattern+" ")) && len(pattern) > bestLen {
			best, bestLen = v, len(pattern)
		}
	}
	return best, bestLen >= 0
}

func commandKey(name string) string {
	return strings.TrimSuffix(filepath.Base(name), ".exe")
}
