package manifest

// CatalogVersion is the only catalog format version understood.
const CatalogVersion = 1

// Catalog is the YAML document declaring tools and groups.
type Catalog struct {
	Version int          `yaml:"version" json:"version"`
	Tools   []ToolEntry  `yaml:"tools,omitempty" json:"tools,omitempty"`
	Groups  []GroupEntry `yaml:"groups,omitempty" json:"groups,omitempty"`
}

// ToolEntry declares one tool.
type ToolEntry struct {
	Name         string            `yaml:"name" json:"name"`
	DisplayName  string            `yaml:"display_name,omitempty" json:"display_name,omitempty"`
	Description  string            `yaml:"description,omitempty" json:"description,omitempty"`
	Category     string            `yaml:"category,omitempty" json:"category,omitempty"`
	Executables  []string          `yaml:"executables" json:"executables"`
	Version      *VersionEntry     `yaml:"version,omitempty" json:"version,omitempty"`
	CommonPaths  []string          `yaml:"common_paths,omitempty" json:"common_paths,omitempty"`
	RegistryName string            `yaml:"registry_name,omitempty" json:"registry_name,omitempty"`
	Packages     map[string]string `yaml:"packages,omitempty" json:"packages,omitempty"`
	Manual       *ManualEntry      `yaml:"manual,omitempty" json:"manual,omitempty"`
	Tests        []TestEntry       `yaml:"tests,omitempty" json:"tests,omitempty"`
	MinVersion   string            `yaml:"min_version,omitempty" json:"min_version,omitempty"`
}

// VersionEntry declares how to read a tool's version.
type VersionEntry struct {
	Command string   `yaml:"command,omitempty" json:"command,omitempty"`
	Args    []string `yaml:"args,omitempty" json:"args,omitempty"`
	Parser  string   `yaml:"parser,omitempty" json:"parser,omitempty"`
	Pattern string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
}

// CommandEntry is a program plus arguments.
type CommandEntry struct {
	Command string   `yaml:"command" json:"command"`
	Args    []string `yaml:"args,omitempty" json:"args,omitempty"`
}

// ManualEntry declares direct provisioning commands.
type ManualEntry struct {
	Install   *CommandEntry `yaml:"install,omitempty" json:"install,omitempty"`
	Update    *CommandEntry `yaml:"update,omitempty" json:"update,omitempty"`
	Uninstall *CommandEntry `yaml:"uninstall,omitempty" json:"uninstall,omitempty"`
}

// TestEntry declares a smoke test.
type TestEntry struct {
	Command string   `yaml:"command" json:"command"`
	Args    []string `yaml:"args,omitempty" json:"args,omitempty"`
	Expect  string   `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// GroupEntry declares a named set of tools.
type GroupEntry struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Members     []string `yaml:"members" json:"members"`
}
