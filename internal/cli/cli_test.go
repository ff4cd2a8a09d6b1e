package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devkit-labs/devkit/internal/runner"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// setupCLI points the config at a temp dir whose config.yaml selects the
// winget and manual backends, disables settle backoff and merges
// testdata/catalog.yaml. The returned mock serves every subprocess.
func setupCLI(t *testing.T) *runner.Mock {
	t.Helper()

	catalog, err := filepath.Abs(filepath.Join("testdata", "catalog.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	t.Setenv("DEVKIT_CONFIG_DIR", dir)
	cfg := fmt.Sprintf("backends: [winget, manual]\ncatalog: %q\nsettle:\n  attempts: 2\n  backoff: 0s\n", catalog)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	viper.Reset()
	t.Cleanup(viper.Reset)

	m := runner.NewMock()
	m.Provide("winget")
	m.Responses["git --version"] = runner.Response{Stdout: "git version 2.44.0\n"}
	m.Responses["just --version"] = runner.Response{Stdout: "just 1.25.2\n"}
	m.OnRun = func(c runner.Call) {
		if c.Name != "winget" || len(c.Args) < 3 || c.Args[0] != "install" {
			return
		}
		switch c.Args[2] {
		case "Git.Git":
			m.Provide("git")
		case "Casey.Just":
			m.Provide("just")
		}
	}

	orig := newRunner
	newRunner = func(io.Writer) runner.Runner { return m }
	t.Cleanup(func() { newRunner = orig })
	return m
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err = rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func wantExitCode(t *testing.T, err error, code int) {
	t.Helper()
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *ExitError", err)
	}
	if exitErr.Code != code {
		t.Errorf("exit code = %d, want %d", exitErr.Code, code)
	}
}

func TestRoot_InstallPositional(t *testing.T) {
	m := setupCLI(t)

	stdout, stderr, err := execute(t, "git", "install")
	if err != nil {
		t.Fatalf("install failed: %v\nstderr:\n%s", err, stderr)
	}
	if got := m.CallsTo("winget install --id Git.Git"); len(got) != 1 {
		t.Errorf("winget install calls = %d, want 1", len(got))
	}
	if !strings.Contains(stdout, "2.44.0") || !strings.Contains(stdout, "winget") {
		t.Errorf("report missing version or backend:\n%s", stdout)
	}
	if !strings.Contains(stdout, "install: 1 attempted (1 succeeded, 0 failed") {
		t.Errorf("summary line missing:\n%s", stdout)
	}
	if !strings.Contains(stderr, "git install") {
		t.Errorf("status line missing from stderr:\n%s", stderr)
	}
}

func TestRoot_InstallAlreadyInstalled(t *testing.T) {
	m := setupCLI(t)
	m.Provide("git")

	stdout, _, err := execute(t, "git", "install")
	if err != nil {
		t.Fatalf("install failed: %v", err)
	}
	if len(m.CallsTo("winget install")) != 0 {
		t.Error("backend should not run for an installed tool")
	}
	if !strings.Contains(stdout, "already installed") {
		t.Errorf("expected already installed message:\n%s", stdout)
	}
}

func TestRoot_UnknownTarget(t *testing.T) {
	setupCLI(t)

	stdout, stderr, err := execute(t, "gi", "install")
	wantExitCode(t, err, 1)
	if err.Error() != "" {
		t.Errorf("batch failure should carry an empty message, got %q", err.Error())
	}
	if !strings.Contains(stderr, `unknown tool or group "gi"`) {
		t.Errorf("stderr missing usage error:\n%s", stderr)
	}
	if !strings.Contains(stderr, "did you mean: git") {
		t.Errorf("stderr missing suggestion:\n%s", stderr)
	}
	if !strings.Contains(stdout, "1 unknown") {
		t.Errorf("summary should count the usage error:\n%s", stdout)
	}
}

func TestRoot_InvalidAction(t *testing.T) {
	setupCLI(t)

	_, _, err := execute(t, "git", "explode")
	wantExitCode(t, err, 1)
	if !strings.Contains(err.Error(), `unknown action "explode"`) {
		t.Errorf("error = %q", err.Error())
	}
}

func TestRoot_BareToolReportsStatus(t *testing.T) {
	m := setupCLI(t)
	m.Provide("git")

	stdout, _, err := execute(t, "git")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(stdout, "status: 1 attempted") {
		t.Errorf("expected status summary:\n%s", stdout)
	}
}

func TestRoot_StatusModule(t *testing.T) {
	m := setupCLI(t)
	m.Provide("git")

	stdout, _, err := execute(t, "--status", "--module", "git", "--detailed")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(stdout, "LOCATION") || !strings.Contains(stdout, "/usr/bin/git") {
		t.Errorf("detailed status should show the location:\n%s", stdout)
	}
}

func TestRoot_StatusRejectsArgs(t *testing.T) {
	setupCLI(t)

	_, _, err := execute(t, "--status", "git")
	wantExitCode(t, err, 1)
}

func TestRoot_GroupAction(t *testing.T) {
	m := setupCLI(t)
	m.Provide("git")

	stdout, _, err := execute(t, "--group", "cli-tools", "check")
	wantExitCode(t, err, 1)
	if !strings.Contains(stdout, "check: 2 attempted (1 succeeded, 1 failed") {
		t.Errorf("expected just to fail as not installed:\n%s", stdout)
	}
}

func TestRoot_GroupRequiresOneAction(t *testing.T) {
	setupCLI(t)

	_, _, err := execute(t, "--group", "cli-tools")
	wantExitCode(t, err, 1)
}

func TestRoot_ListFlag(t *testing.T) {
	setupCLI(t)

	stdout, _, err := execute(t, "--list")
	if err != nil {
		t.Fatalf("--list failed: %v", err)
	}
	for _, want := range []string{"NAME", "just", "winget"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("list output missing %q:\n%s", want, stdout)
		}
	}
}

func TestActionCmd_Test(t *testing.T) {
	m := setupCLI(t)
	m.Provide("git")

	stdout, _, err := execute(t, "test", "git")
	if err != nil {
		t.Fatalf("test failed: %v", err)
	}
	if !strings.Contains(stdout, "1 tests passed") {
		t.Errorf("expected passing smoke test:\n%s", stdout)
	}
}

func TestActionCmd_InstallMany(t *testing.T) {
	m := setupCLI(t)

	stdout, _, err := execute(t, "install", "git", "just", "nope")
	wantExitCode(t, err, 1)
	if len(m.CallsTo("winget install")) != 2 {
		t.Errorf("winget install calls = %v", m.CallsTo("winget install"))
	}
	if !strings.Contains(stdout, "install: 2 attempted (2 succeeded, 0 failed, 1 unknown)") {
		t.Errorf("unexpected summary:\n%s", stdout)
	}
}

func TestActionCmd_RequiresTarget(t *testing.T) {
	setupCLI(t)

	_, _, err := execute(t, "install")
	wantExitCode(t, err, 1)
}

func TestActionCmd_JSON(t *testing.T) {
	m := setupCLI(t)
	m.Provide("git")

	stdout, _, err := execute(t, "status", "git", "--json")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	var rep struct {
		Action   string `json:"action"`
		Outcomes []struct {
			Tool      string `json:"tool"`
			Succeeded bool   `json:"succeeded"`
			Detection struct {
				Installed bool   `json:"installed"`
				Version   string `json:"version"`
			} `json:"detection"`
		} `json:"outcomes"`
	}
	if err := json.Unmarshal([]byte(stdout), &rep); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if rep.Action != "status" || len(rep.Outcomes) != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	o := rep.Outcomes[0]
	if o.Tool != "git" || !o.Succeeded || !o.Detection.Installed || o.Detection.Version != "2.44.0" {
		t.Errorf("unexpected outcome: %+v", o)
	}
}

func TestActionCmd_HelpTool(t *testing.T) {
	setupCLI(t)

	stdout, _, err := execute(t, "help-tool", "git")
	if err != nil {
		t.Fatalf("help-tool failed: %v", err)
	}
	for _, want := range []string{"Git (git)", "Git.Git", "cli-tools"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help output missing %q:\n%s", want, stdout)
		}
	}
}

func TestListCmd_JSON(t *testing.T) {
	setupCLI(t)

	stdout, _, err := execute(t, "list", "--category", "build", "--json")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var tools []struct {
		Name   string   `json:"name"`
		Groups []string `json:"groups"`
	}
	if err := json.Unmarshal([]byte(stdout), &tools); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if len(tools) != 1 || tools[0].Name != "just" {
		t.Fatalf("tools = %+v, want only just", tools)
	}
	if len(tools[0].Groups) != 1 || tools[0].Groups[0] != "cli-tools" {
		t.Errorf("groups = %v", tools[0].Groups)
	}
}

func TestGroupsCmd(t *testing.T) {
	setupCLI(t)

	stdout, _, err := execute(t, "groups")
	if err != nil {
		t.Fatalf("groups failed: %v", err)
	}
	if !strings.Contains(stdout, "cli-tools (2)") || !strings.Contains(stdout, "git, just") {
		t.Errorf("groups output:\n%s", stdout)
	}
}

func TestDoctor(t *testing.T) {
	setupCLI(t)

	stdout, _, err := execute(t, "doctor")
	if err != nil {
		t.Fatalf("doctor failed: %v\n%s", err, stdout)
	}
	for _, want := range []string{"[ OK ] winget available", "[ OK ] manual available", "[ OK ] embedded catalog", "[ OK ] valid catalog: 2 tool(s)"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("doctor output missing %q:\n%s", want, stdout)
		}
	}
}

func TestDoctor_MissingBackend(t *testing.T) {
	m := setupCLI(t)
	m.Remove("winget")

	stdout, _, err := execute(t, "doctor")
	if err != nil {
		t.Fatalf("a missing backend is not a failure: %v", err)
	}
	if !strings.Contains(stdout, "[MISS] winget not found") {
		t.Errorf("doctor output:\n%s", stdout)
	}
}

func TestDoctor_CheckCatalog(t *testing.T) {
	setupCLI(t)

	tests := []struct {
		name    string
		path    string
		wantErr bool
		want    string
	}{
		{"valid", filepath.Join("testdata", "catalog.yaml"), false, "[ OK ] valid catalog"},
		{"invalid", filepath.Join("testdata", "bad-catalog.yaml"), true, "[FAIL]"},
		{"missing", filepath.Join("testdata", "missing.yaml"), true, "[FAIL]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, "doctor", "--check-catalog", tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(stdout, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, stdout)
			}
		})
	}
}

func TestConfigSetGet(t *testing.T) {
	setupCLI(t)

	if _, _, err := execute(t, "config", "set", "settle.attempts", "5"); err != nil {
		t.Fatalf("config set failed: %v", err)
	}
	viper.Reset()
	stdout, _, err := execute(t, "config", "get", "settle.attempts")
	if err != nil {
		t.Fatalf("config get failed: %v", err)
	}
	if strings.TrimSpace(stdout) != "5" {
		t.Errorf("settle.attempts = %q, want 5", strings.TrimSpace(stdout))
	}
}

func TestConfigSet_Rejects(t *testing.T) {
	setupCLI(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown key", []string{"config", "set", "telemetry", "on"}, "unknown config key"},
		{"unknown backend", []string{"config", "set", "backends", "winget,apt"}, "unknown backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestVersionCmd(t *testing.T) {
	setupCLI(t)
	buildVersion, buildCommit, buildDate = "1.2.3", "abc123", "2026-01-01"
	t.Cleanup(func() { buildVersion, buildCommit, buildDate = "", "", "" })

	stdout, _, err := execute(t, "version", "--short")
	if err != nil || strings.TrimSpace(stdout) != "1.2.3" {
		t.Errorf("version --short = %q, %v", stdout, err)
	}

	stdout, _, err = execute(t, "version", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var info map[string]string
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if info["commit"] != "abc123" {
		t.Errorf("commit = %q", info["commit"])
	}
}
