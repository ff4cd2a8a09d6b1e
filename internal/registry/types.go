package registry

import "strings"

// Version output parsers.
const (
	ParserFirstLine = "first-line"
	ParserSemver    = "semver"
	ParserRegex     = "regex"
)

// ToolDescriptor is the declarative record of one installable tool.
type ToolDescriptor struct {
	Name        string
	DisplayName string
	Description string
	Category    string

	// ExecutableNames are probed on PATH in order. Never empty.
	ExecutableNames []string
	VersionProbe    *VersionProbe
	// CommonPaths may contain %VAR%, $VAR, ~ and glob segments.
	CommonPaths []string
	// RegistryName is matched against uninstall DisplayName entries on Windows.
	RegistryName string

	// PackageIDs maps backend name to the package id that backend knows.
	PackageIDs   map[string]string
	Manual       *ManualCommands
	TestCommands []TestCommand
	MinVersion   string
}

// VersionProbe describes the command whose output yields a version string.
// An empty Command means the resolved executable itself.
type VersionProbe struct {
	Command string
	Args    []string
	Parser  string
	Pattern string
}

// Command is a program plus arguments.
type Command struct {
	Name string
	Args []string
}

// String renders the command as it would be typed.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// ManualCommands are direct provisioning commands for tools no package
// manager carries.
type ManualCommands struct {
	Install   *Command
	Update    *Command
	Uninstall *Command
}

// TestCommand is a functional smoke test. Expect is a regular expression
// matched against the combined output; empty means exit code only.
type TestCommand struct {
	Command string
	Args    []string
	Expect  string
}

// String renders the test command line.
func (t TestCommand) String() string {
	return Command{Name: t.Command, Args: t.Args}.String()
}

// Group is a named, statically configured set of tool names.
type Group struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Members     []string `json:"members"`
}

// Label returns the display name, falling back to the tool name.
func (d ToolDescriptor) Label() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.Name
}

// PackageID returns the id the named backend uses for this tool.
func (d ToolDescriptor) PackageID(backend string) (string, bool) {
	id, ok := d.PackageIDs[backend]
	return id, ok && id != ""
}

func (d ToolDescriptor) clone() ToolDescriptor {
	out := d
	out.ExecutableNames = append([]string(nil), d.ExecutableNames...)
	out.CommonPaths = append([]string(nil), d.CommonPaths...)
	if d.VersionProbe != nil {
		vp := *d.VersionProbe
		vp.Args = append([]string(nil), vp.Args...)
		out.VersionProbe = &vp
	}
	if d.PackageIDs != nil {
		out.PackageIDs = make(map[string]string, len(d.PackageIDs))
		for k, v := range d.PackageIDs {
			out.PackageIDs[k] = v
		}
	}
	if d.Manual != nil {
		m := ManualCommands{
			Install:   cloneCommand(d.Manual.Install),
			Update:    cloneCommand(d.Manual.Update),
			Uninstall: cloneCommand(d.Manual.Uninstall),
		}
		out.Manual = &m
	}
	if d.TestCommands != nil {
		out.TestCommands = make([]TestCommand, len(d.TestCommands))
		for i, tc := range d.TestCommands {
			tc.Args = append([]string(nil), tc.Args...)
			out.TestCommands[i] = tc
		}
	}
	return out
}

func cloneCommand(c *Command) *Command {
	if c == nil {
		return nil
	}
	out := Command{Name: c.Name, Args: append([]string(nil), c.Args...)}
	return &out
}

func (g Group) clone() Group {
	g.Members = append([]string(nil), g.Members...)
	return g
}
