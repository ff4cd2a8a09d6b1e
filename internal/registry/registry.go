package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// AllTarget is the reserved target that resolves to every tool.
const AllTarget = "all"

// maxSuggestions caps the did-you-mean list on lookups that miss.
const maxSuggestions = 3

// Registry maps tool names to descriptors and group names to members.
type Registry struct {
	tools  map[string]ToolDescriptor
	names  []string
	groups map[string]Group
	gnames []string
}

// NotFoundError is returned when a name matches no tool or group.
type NotFoundError struct {
	Name        string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("unknown tool or group %q", e.Name)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean: %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// New validates the descriptors and groups and builds a Registry.
// Names are case-insensitive and stored lowercased.
func New(tools []ToolDescriptor, groups []Group) (*Registry, error) {
	r := &Registry{
		tools:  make(map[string]ToolDescriptor, len(tools)),
		groups: make(map[string]Group, len(groups)),
	}

	var errs []error
	for _, t := range tools {
		name := normalize(t.Name)
		switch {
		case name == "":
			errs = append(errs, errors.New("tool with empty name"))
			continue
		case name == AllTarget:
			errs = append(errs, fmt.Errorf("tool name %q is reserved", name))
			continue
		}
		if _, dup := r.tools[name]; dup {
			errs = append(errs, fmt.Errorf("duplicate tool %q", name))
			continue
		}
		if len(nonEmpty(t.ExecutableNames)) == 0 {
			errs = append(errs, fmt.Errorf("tool %q: no executable names", name))
			continue
		}
		d := t.clone()
		d.Name = name
		d.ExecutableNames = nonEmpty(d.ExecutableNames)
		r.tools[name] = d
		r.names = append(r.names, name)
	}

	for _, g := range groups {
		name := normalize(g.Name)
		switch {
		case name == "":
			errs = append(errs, errors.New("group with empty name"))
			continue
		case name == AllTarget:
			errs = append(errs, fmt.Errorf("group name %q is reserved", name))
			continue
		}
		if _, dup := r.groups[name]; dup {
			errs = append(errs, fmt.Errorf("duplicate group %q", name))
			continue
		}
		if _, clash := r.tools[name]; clash {
			errs = append(errs, fmt.Errorf("group %q collides with a tool of the same name", name))
			continue
		}

		seen := make(map[string]bool, len(g.Members))
		members := make([]string, 0, len(g.Members))
		for _, m := range g.Members {
			m = normalize(m)
			if seen[m] {
				continue
			}
			seen[m] = true
			if _, ok := r.tools[m]; !ok {
				errs = append(errs, fmt.Errorf("group %q: unknown member %q", name, m))
				continue
			}
			members = append(members, m)
		}
		r.groups[name] = Group{Name: name, Description: g.Description, Members: members}
		r.gnames = append(r.gnames, name)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid registry: %w", errors.Join(errs...))
	}

	sort.Strings(r.names)
	sort.Strings(r.gnames)
	return r, nil
}

// Get returns the descriptor registered under name.
func (r *Registry) Get(name string) (ToolDescriptor, error) {
	d, ok := r.tools[normalize(name)]
	if !ok {
		return ToolDescriptor{}, r.notFound(name)
	}
	return d.clone(), nil
}

// Has reports whether name is a registered tool.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[normalize(name)]
	return ok
}

// All returns every descriptor sorted by name.
func (r *Registry) All() []ToolDescriptor {
	out := make([]ToolDescriptor, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.tools[n].clone())
	}
	return out
}

// Names returns the sorted tool names.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.names)
}

// Groups returns every group sorted by name.
func (r *Registry) Groups() []Group {
	out := make([]Group, 0, len(r.gnames))
	for _, n := range r.gnames {
		out = append(out, r.groups[n].clone())
	}
	return out
}

// Group returns the group registered under name.
func (r *Registry) Group(name string) (Group, bool) {
	g, ok := r.groups[normalize(name)]
	if !ok {
		return Group{}, false
	}
	return g.clone(), true
}

// GroupsOf returns the names of groups that include the tool.
func (r *Registry) GroupsOf(tool string) []string {
	tool = normalize(tool)
	var out []string
	for _, n := range r.gnames {
		for _, m := range r.groups[n].Members {
			if m == tool {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// ResolveGroup returns the descriptors of a group's members in declared
// order, without duplicates.
func (r *Registry) ResolveGroup(name string) ([]ToolDescriptor, error) {
	g, ok := r.groups[normalize(name)]
	if !ok {
		return nil, r.notFound(name)
	}
	out := make([]ToolDescriptor, 0, len(g.Members))
	for _, m := range g.Members {
		out = append(out, r.tools[m].clone())
	}
	return out, nil
}

// Resolve expands a target that may be a tool name, a group name or "all".
// Tool names take precedence over groups; New guarantees they never clash.
func (r *Registry) Resolve(target string) ([]ToolDescriptor, error) {
	name := normalize(target)
	if name == AllTarget {
		return r.All(), nil
	}
	if d, ok := r.tools[name]; ok {
		return []ToolDescriptor{d.clone()}, nil
	}
	if _, ok := r.groups[name]; ok {
		return r.ResolveGroup(name)
	}
	return nil, r.notFound(target)
}

// Suggest returns up to maxSuggestions tool or group names that fuzzily
// match name, best first.
func (r *Registry) Suggest(name string) []string {
	name = normalize(name)
	if name == "" {
		return nil
	}
	candidates := make([]string, 0, len(r.names)+len(r.gnames))
	candidates = append(candidates, r.names...)
	candidates = append(candidates, r.gnames...)

	var out []string
	for _, m := range fuzzy.Find(name, candidates) {
		out = append(out, m.Str)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

func (r *Registry) notFound(name string) *NotFoundError {
	return &NotFoundError{Name: name, Suggestions: r.Suggest(name)}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
