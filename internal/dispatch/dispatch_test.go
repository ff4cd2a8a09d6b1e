package dispatch

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/devkit-labs/devkit/internal/backend"
	"github.com/devkit-labs/devkit/internal/detect"
	"github.com/devkit-labs/devkit/internal/provision"
	"github.com/devkit-labs/devkit/internal/registry"
	"github.com/devkit-labs/devkit/internal/runner"
	"github.com/devkit-labs/devkit/internal/toolerr"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	tools := []registry.ToolDescriptor{
		{
			Name:            "git",
			DisplayName:     "Git",
			ExecutableNames: []string{"git"},
			VersionProbe:    &registry.VersionProbe{Args: []string{"--version"}},
			PackageIDs:      map[string]string{"winget": "Git.Git", "choco": "git"},
			TestCommands:    []registry.TestCommand{{Command: "git", Args: []string{"--version"}, Expect: "git version"}},
			MinVersion:      ">= 2.30.0",
		},
		{
			Name:            "rust",
			ExecutableNames: []string{"rustc"},
			VersionProbe:    &registry.VersionProbe{Command: "rustc", Args: []string{"--version"}, Parser: registry.ParserSemver},
			PackageIDs:      map[string]string{"winget": "Rustlang.Rustup"},
		},
		{
			Name:            "go",
			ExecutableNames: []string{"go"},
			PackageIDs:      map[string]string{"winget": "GoLang.Go"},
		},
	}
	groups := []registry.Group{{Name: "dev-tools", Members: []string{"git", "rust", "go"}}}
	reg, err := registry.New(tools, groups)
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

type harness struct {
	mock *runner.Mock
	disp *Dispatcher
}

// newHarness wires the real detector and provisioner over a mock runner.
// Installs become visible to detection as soon as the backend runs.
func newHarness(t *testing.T) *harness {
	t.Helper()
	m := runner.NewMock()
	m.OnRun = func(c runner.Call) {
		if len(c.Args) == 0 || c.Args[0] != "install" {
			return
		}
		for _, a := range c.Args {
			switch a {
			case "Git.Git", "git":
				m.Provide("git")
			case "Rustlang.Rustup":
				m.Provide("rustc")
			case "GoLang.Go":
				m.Provide("go")
			}
		}
	}
	det := detect.New(m, detect.WithOSProbe(nil), detect.WithGetenv(func(string) string { return "" }))
	backends, err := backend.Ordered([]string{"winget", "choco"}, m)
	if err != nil {
		t.Fatal(err)
	}
	prov := provision.New(det, backends,
		provision.WithSettle(provision.SettlePolicy{Attempts: 2}),
		provision.WithSleep(func(context.Context, time.Duration) error { return nil }),
	)
	return &harness{mock: m, disp: New(testRegistry(t), det, prov, nil)}
}

func TestParseAction(t *testing.T) {
	for _, a := range Actions {
		got, err := ParseAction(strings.ToUpper(a.String()))
		if err != nil || got != a {
			t.Errorf("ParseAction(%q) = %v, %v", a, got, err)
		}
	}
	if _, err := ParseAction("explode"); err == nil || !strings.Contains(err.Error(), "install|test|update|check|status|uninstall|help") {
		t.Errorf("ParseAction(explode) error = %v", err)
	}
}

func TestActionProvisioning(t *testing.T) {
	tests := []struct {
		a    Action
		want provision.Action
		ok   bool
	}{
		{Install, provision.Install, true},
		{Update, provision.Update, true},
		{Uninstall, provision.Uninstall, true},
		{Test, 0, false},
		{Check, 0, false},
		{Status, 0, false},
		{Help, 0, false},
	}
	for _, tt := range tests {
		got, ok := tt.a.Provisioning()
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("%v.Provisioning() = %v, %v", tt.a, got, ok)
		}
	}
}

func TestResolve(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name      string
		req       Request
		want      string
		wantUsage int
	}{
		{"single", Request{Targets: []string{"git"}}, "git", 0},
		{"group", Request{Group: "dev-tools"}, "git,rust,go", 0},
		{"group as target", Request{Targets: []string{"dev-tools"}}, "git,rust,go", 0},
		{"all", Request{All: true, Targets: []string{"ignored"}}, "git,go,rust", 0},
		{"dedupe", Request{Targets: []string{"go", "dev-tools", "go"}}, "go,git,rust", 0},
		{"unknown", Request{Targets: []string{"git", "nope"}}, "git", 1},
		{"group flag needs group", Request{Group: "git"}, "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			descs, errs := h.disp.Resolve(tt.req)
			var names []string
			for _, d := range descs {
				names = append(names, d.Name)
			}
			if got := strings.Join(names, ","); got != tt.want {
				t.Errorf("resolved %q, want %q", got, tt.want)
			}
			if len(errs) != tt.wantUsage {
				t.Errorf("usage errors = %d, want %d", len(errs), tt.wantUsage)
			}
			for _, err := range errs {
				if err.Kind != toolerr.UnknownTarget {
					t.Errorf("kind = %q, want %q", err.Kind, toolerr.UnknownTarget)
				}
			}
		})
	}
}

func TestRun_InstallManyWithUnknownTarget(t *testing.T) {
	h := newHarness(t)
	h.mock.Provide("winget")

	var seen []string
	h.disp.OnOutcome = func(o Outcome) { seen = append(seen, o.Tool) }

	rep := h.disp.Run(context.Background(), Request{
		Targets: []string{"git", "rust", "nonexistent"},
		Action:  Install,
	})

	if rep.Summary.Attempted != 2 || rep.Summary.UsageErrors != 1 {
		t.Errorf("summary = %+v, want 2 attempted and 1 usage error", rep.Summary)
	}
	if rep.Summary.OK() {
		t.Error("Summary.OK() = true, want false")
	}
	if len(rep.Outcomes) != 3 || len(seen) != 3 {
		t.Fatalf("outcomes = %d, observed = %d", len(rep.Outcomes), len(seen))
	}

	byTool := make(map[string]Outcome)
	for _, o := range rep.Outcomes {
		byTool[o.Tool] = o
	}
	unknown := byTool["nonexistent"]
	if !unknown.UsageError || toolerr.KindOf(unknown.Err) != toolerr.UnknownTarget {
		t.Errorf("nonexistent outcome = %+v", unknown)
	}
	for _, name := range []string{"git", "rust"} {
		o := byTool[name]
		if !o.Succeeded || o.Provision == nil || o.Provision.BackendUsed != "winget" {
			t.Errorf("%s outcome = %+v", name, o)
		}
	}
}

func TestRun_OutcomesFollowTargetOrder(t *testing.T) {
	h := newHarness(t)
	h.mock.Provide("winget")

	var seen []string
	h.disp.OnOutcome = func(o Outcome) { seen = append(seen, o.Tool) }

	rep := h.disp.Run(context.Background(), Request{
		Targets: []string{"git", "nonexistent", "rust"},
		Action:  Install,
	})

	want := []string{"git", "nonexistent", "rust"}
	if len(rep.Outcomes) != len(want) {
		t.Fatalf("outcomes = %d, want %d", len(rep.Outcomes), len(want))
	}
	for i, name := range want {
		if rep.Outcomes[i].Tool != name {
			t.Errorf("outcome[%d] = %q, want %q", i, rep.Outcomes[i].Tool, name)
		}
		if seen[i] != name {
			t.Errorf("OnOutcome[%d] = %q, want %q", i, seen[i], name)
		}
	}
	if !rep.Outcomes[1].UsageError {
		t.Errorf("outcome[1] = %+v, want usage error", rep.Outcomes[1])
	}
}

func TestRun_NoFailFast(t *testing.T) {
	h := newHarness(t)
	h.mock.Provide("winget")
	h.mock.Responses["winget install --id Git.Git"] = runner.Response{ExitCode: 1}

	rep := h.disp.Run(context.Background(), Request{Group: "dev-tools", Action: Install})

	if rep.Summary.Attempted != 3 || rep.Summary.Failed != 1 || rep.Summary.Succeeded != 2 {
		t.Errorf("summary = %+v", rep.Summary)
	}
	if rep.Outcomes[0].Tool != "git" || rep.Outcomes[0].Succeeded {
		t.Errorf("first outcome = %+v", rep.Outcomes[0])
	}
	if toolerr.KindOf(rep.Outcomes[0].Err) != toolerr.BackendExitNonZero {
		t.Errorf("git err = %v", rep.Outcomes[0].Err)
	}
}

func TestRun_Status(t *testing.T) {
	h := newHarness(t)
	h.mock.Provide("git")
	h.mock.Responses["git --version"] = runner.Response{Stdout: "git version 2.42.0"}

	rep := h.disp.Run(context.Background(), Request{Targets: []string{"git", "go"}, Action: Status})

	if !rep.Summary.OK() {
		t.Errorf("status should not fail for missing tools: %+v", rep.Summary)
	}
	if rep.Outcomes[0].Message != "installed (git version 2.42.0)" {
		t.Errorf("git message = %q", rep.Outcomes[0].Message)
	}
	if rep.Outcomes[1].Message != "not installed" || rep.Outcomes[1].Detection.Status != detect.NotFound {
		t.Errorf("go outcome = %+v", rep.Outcomes[1])
	}
	if len(h.mock.CallsTo("winget")) != 0 {
		t.Error("status must not invoke backends")
	}
}

func TestRun_Test(t *testing.T) {
	t.Run("passes", func(t *testing.T) {
		h := newHarness(t)
		h.mock.Provide("git")
		h.mock.Responses["git --version"] = runner.Response{Stdout: "git version 2.42.0"}

		rep := h.disp.Run(context.Background(), Request{Targets: []string{"git"}, Action: Test})
		o := rep.Outcomes[0]
		if !o.Succeeded || len(o.Tests) != 1 || o.Message != "1 tests passed" {
			t.Errorf("outcome = %+v", o)
		}
	})

	t.Run("fails on bad output", func(t *testing.T) {
		h := newHarness(t)
		h.mock.Provide("git")
		h.mock.Responses["git --version"] = runner.Response{Stdout: "something else"}

		rep := h.disp.Run(context.Background(), Request{Targets: []string{"git"}, Action: Test})
		o := rep.Outcomes[0]
		if o.Succeeded || toolerr.KindOf(o.Err) != toolerr.CheckFailed {
			t.Errorf("outcome = %+v", o)
		}
	})

	t.Run("not installed", func(t *testing.T) {
		h := newHarness(t)
		rep := h.disp.Run(context.Background(), Request{Targets: []string{"git"}, Action: Test})
		o := rep.Outcomes[0]
		if o.Succeeded || toolerr.KindOf(o.Err) != toolerr.NotInstalled {
			t.Errorf("outcome = %+v", o)
		}
	})

	t.Run("no tests declared", func(t *testing.T) {
		h := newHarness(t)
		h.mock.Provide("go")
		rep := h.disp.Run(context.Background(), Request{Targets: []string{"go"}, Action: Test})
		if !rep.Outcomes[0].Succeeded {
			t.Errorf("outcome = %+v", rep.Outcomes[0])
		}
	})
}

func TestRun_Check(t *testing.T) {
	tests := []struct {
		name        string
		tool        string
		version     string
		wantOK      bool
		wantWarning bool
	}{
		{"satisfied", "git", "git version 2.42.0", true, false},
		{"outdated", "git", "git version 2.20.1", false, false},
		{"unparsable", "git", "git (custom build)", true, true},
		{"no constraint", "rust", "rustc 1.75.0", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.mock.Provide("git", "rustc")
			h.mock.Responses["git --version"] = runner.Response{Stdout: tt.version}
			h.mock.Responses["rustc --version"] = runner.Response{Stdout: tt.version}

			rep := h.disp.Run(context.Background(), Request{Targets: []string{tt.tool}, Action: Check})
			o := rep.Outcomes[0]
			if o.Succeeded != tt.wantOK {
				t.Errorf("Succeeded = %v, want %v (%s)", o.Succeeded, tt.wantOK, o.Message)
			}
			if (len(o.Warnings) > 0) != tt.wantWarning {
				t.Errorf("Warnings = %v", o.Warnings)
			}
		})
	}
}

func TestRun_Help(t *testing.T) {
	h := newHarness(t)
	rep := h.disp.Run(context.Background(), Request{Targets: []string{"git"}, Action: Help})

	o := rep.Outcomes[0]
	if !o.Succeeded || o.Descriptor == nil || o.Descriptor.Name != "git" {
		t.Errorf("outcome = %+v", o)
	}
	if o.Message != "not installed" {
		t.Errorf("Message = %q", o.Message)
	}
}

func TestRun_UpdateAndUninstall(t *testing.T) {
	h := newHarness(t)
	h.mock.Provide("winget", "git")
	h.mock.Responses["winget list"] = runner.Response{Stdout: "Git  Git.Git  2.41.0"}
	h.mock.OnRun = func(c runner.Call) {
		if c.Name == "winget" && len(c.Args) > 0 && c.Args[0] == "uninstall" {
			h.mock.Remove("git")
		}
	}

	rep := h.disp.Run(context.Background(), Request{Targets: []string{"git"}, Action: Update})
	if !rep.Summary.OK() || rep.Outcomes[0].Provision.BackendUsed != "winget" {
		t.Fatalf("update outcome = %+v", rep.Outcomes[0])
	}

	rep = h.disp.Run(context.Background(), Request{Targets: []string{"git"}, Action: Uninstall})
	if !rep.Summary.OK() {
		t.Fatalf("uninstall outcome = %+v", rep.Outcomes[0])
	}
	if rep.Outcomes[0].Detection.Installed {
		t.Error("detection after uninstall still reports installed")
	}
}

func TestRun_CanceledContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := h.disp.Run(ctx, Request{Group: "dev-tools", Action: Status})
	if rep.Summary.Failed != 3 {
		t.Errorf("summary = %+v, want every tool failed", rep.Summary)
	}
}
