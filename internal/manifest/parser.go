package manifest

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/devkit-labs/devkit/internal/registry"
)

//go:embed catalog/tools.yaml
var defaultCatalog []byte

// DefaultSource names the embedded catalog in error messages.
const DefaultSource = "<embedded>"

// SchemaError reports a catalog that does not conform to the schema.
type SchemaError struct {
	Source string
	Issues []ValidationIssue
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return fmt.Sprintf("catalog %s is invalid: %s", e.Source, strings.Join(parts, "; "))
}

// Parse validates data against the catalog schema and decodes it.
// source is used in error messages only.
func Parse(data []byte, source string) (*Catalog, error) {
	result, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("validating catalog %s: %w", source, err)
	}
	if !result.Valid {
		return nil, &SchemaError{Source: source, Issues: result.Issues}
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", source, err)
	}
	return &c, nil
}

// ParseFile reads and parses a catalog file.
func ParseFile(path string) (*Catalog, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path)
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog, DefaultSource)
}

// Merge returns base with overlay applied. Overlay tools and groups replace
// base entries of the same name and are otherwise appended.
func Merge(base, overlay *Catalog) *Catalog {
	out := &Catalog{Version: base.Version}
	out.Tools = mergeByName(base.Tools, overlay.Tools, func(t ToolEntry) string { return t.Name })
	out.Groups = mergeByName(base.Groups, overlay.Groups, func(g GroupEntry) string { return g.Name })
	return out
}

func mergeByName[T any](base, overlay []T, name func(T) string) []T {
	index := make(map[string]int, len(base))
	out := make([]T, 0, len(base)+len(overlay))
	for _, item := range base {
		index[strings.ToLower(name(item))] = len(out)
		out = append(out, item)
	}
	for _, item := range overlay {
		key := strings.ToLower(name(item))
		if i, ok := index[key]; ok {
			out[i] = item
			continue
		}
		index[key] = len(out)
		out = append(out, item)
	}
	return out
}

// Load builds the registry from the embedded catalog, merging the catalog
// at overlayPath over it when overlayPath is non-empty.
func Load(overlayPath string) (*registry.Registry, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if overlayPath != "" {
		overlay, err := ParseFile(overlayPath)
		if err != nil {
			return nil, err
		}
		c = Merge(c, overlay)
	}
	return c.Registry()
}

// Registry converts the catalog into an immutable registry.
func (c *Catalog) Registry() (*registry.Registry, error) {
	tools := make([]registry.ToolDescriptor, 0, len(c.Tools))
	for _, t := range c.Tools {
		tools = append(tools, t.Descriptor())
	}
	groups := make([]registry.Group, 0, len(c.Groups))
	for _, g := range c.Groups {
		groups = append(groups, registry.Group{Name: g.Name, Description: g.Description, Members: g.Members})
	}
	return registry.New(tools, groups)
}

// Descriptor converts the entry into a registry descriptor.
func (t ToolEntry) Descriptor() registry.ToolDescriptor {
	d := registry.ToolDescriptor{
		Name:            t.Name,
		DisplayName:     t.DisplayName,
		Description:     t.Description,
		Category:        t.Category,
		ExecutableNames: t.Executables,
		CommonPaths:     t.CommonPaths,
		RegistryName:    t.RegistryName,
		PackageIDs:      t.Packages,
		MinVersion:      t.MinVersion,
	}
	if t.Version != nil {
		parser := t.Version.Parser
		if parser == "" {
			parser = registry.ParserFirstLine
		}
		d.VersionProbe = &registry.VersionProbe{
			Command: t.Version.Command,
			Args:    t.Version.Args,
			Parser:  parser,
			Pattern: t.Version.Pattern,
		}
	}
	if t.Manual != nil {
		d.Manual = &registry.ManualCommands{
			Install:   t.Manual.Install.command(),
			Update:    t.Manual.Update.command(),
			Uninstall: t.Manual.Uninstall.command(),
		}
	}
	for _, tc := range t.Tests {
		d.TestCommands = append(d.TestCommands, registry.TestCommand{
			Command: tc.Command,
			Args:    tc.Args,
			Expect:  tc.Expect,
		})
	}
	return d
}

func (c *CommandEntry) command() *registry.Command {
	if c == nil {
		return nil
	}
	return &registry.Command{Name: c.Command, Args: c.Args}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
