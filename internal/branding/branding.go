// Package branding holds the product identity baked into the binary from
// branding.yaml: command name, dot-directory and env var prefix.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var identityYAML []byte

// Identity is the decoded branding.yaml.
type Identity struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	HomeDir     string `yaml:"home_dir"`
	EnvPrefix   string `yaml:"env_prefix"`
	GoModule    string `yaml:"go_module"`
}

var fallback = Identity{
	CLIName:     "devkit",
	DisplayName: "DevKit",
	Description: "Provision and verify developer tools",
	HomeDir:     ".devkit",
	EnvPrefix:   "DEVKIT",
	GoModule:    "github.com/devkit-labs/devkit",
}

var current = sync.OnceValue(func() Identity {
	var id Identity
	if err := yaml.Unmarshal(identityYAML, &id); err != nil {
		return fallback
	}
	fill(&id.CLIName, fallback.CLIName)
	fill(&id.DisplayName, fallback.DisplayName)
	fill(&id.Description, fallback.Description)
	fill(&id.HomeDir, fallback.HomeDir)
	fill(&id.EnvPrefix, fallback.EnvPrefix)
	fill(&id.GoModule, fallback.GoModule)
	id.EnvPrefix = strings.ToUpper(id.EnvPrefix)
	return id
})

func fill(field *string, def string) {
	if strings.TrimSpace(*field) == "" {
		*field = def
	}
}

// Get returns the embedded identity. Blank fields take built-in values.
func Get() Identity { return current() }

func CLIName() string     { return current().CLIName }
func DisplayName() string { return current().DisplayName }
func Description() string { return current().Description }
func HomeDir() string     { return current().HomeDir }
func EnvPrefix() string   { return current().EnvPrefix }

// GoModule is reported by `version --json`.
func GoModule() string { return current().GoModule }

// EnvVar prefixes suffix with the env prefix, so "config_dir" and
// "config-dir" both become DEVKIT_CONFIG_DIR.
func EnvVar(suffix string) string {
	name := strings.ToUpper(strings.ReplaceAll(suffix, "-", "_"))
	return current().EnvPrefix + "_" + name
}
