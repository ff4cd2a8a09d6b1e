package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/devkit-labs/devkit/internal/detect"
	"github.com/devkit-labs/devkit/internal/registry"
)

// WriteList prints the registered tools.
func WriteList(w io.Writer, tools []registry.ToolDescriptor) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tEXECUTABLES\tBACKENDS")
	for _, t := range tools {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Name, dash(t.Category), strings.Join(t.ExecutableNames, ","), dash(strings.Join(backendNames(t), ",")))
	}
	tw.Flush()
}

// WriteGroups prints each group with its members.
func WriteGroups(w io.Writer, groups []registry.Group) {
	st := newStyles(w)
	for _, g := range groups {
		fmt.Fprintf(w, "%s (%d)\n", st.bold.Render(g.Name), len(g.Members))
		if g.Description != "" {
			fmt.Fprintf(w, "  %s\n", st.muted.Render(g.Description))
		}
		fmt.Fprintf(w, "  %s\n", strings.Join(g.Members, ", "))
	}
}

// WriteHelp prints a descriptor's metadata and current detection state.
func WriteHelp(w io.Writer, d registry.ToolDescriptor, groups []string, det *detect.Result) {
	st := newStyles(w)
	fmt.Fprintln(w, st.bold.Render(d.Label())+" ("+d.Name+")")
	if d.Description != "" {
		fmt.Fprintln(w, d.Description)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	field := func(k, v string) {
		if v != "" {
			fmt.Fprintf(tw, "  %s\t%s\n", k, v)
		}
	}
	field("Category:", d.Category)
	field("Executables:", strings.Join(d.ExecutableNames, ", "))
	if d.VersionProbe != nil {
		cmd := d.VersionProbe.Command
		if cmd == "" {
			cmd = d.ExecutableNames[0]
		}
		field("Version probe:", registry.Command{Name: cmd, Args: d.VersionProbe.Args}.String())
	}
	field("Minimum version:", d.MinVersion)
	for _, b := range backendNames(d) {
		id, _ := d.PackageID(b)
		field("Package ("+b+"):", id)
	}
	if d.Manual != nil && d.Manual.Install != nil {
		field("Manual install:", d.Manual.Install.String())
	}
	field("Common paths:", strings.Join(d.CommonPaths, "; "))
	field("Groups:", strings.Join(groups, ", "))
	tw.Flush()

	if len(d.TestCommands) > 0 {
		fmt.Fprintln(w, "\n  Tests:")
		for _, tc := range d.TestCommands {
			line := "    " + tc.String()
			if tc.Expect != "" {
				line += st.muted.Render("  ~ /" + tc.Expect + "/")
			}
			fmt.Fprintln(w, line)
		}
	}

	if det != nil {
		fmt.Fprintln(w)
		if det.Installed {
			fmt.Fprintf(w, "  %s %s %s\n", st.ok.Render("installed"), dash(det.Version), st.muted.Render(det.Location()))
		} else {
			fmt.Fprintf(w, "  %s\n", st.warn.Render("not installed"))
		}
	}
}

func backendNames(d registry.ToolDescriptor) []string {
	names := make([]string, 0, len(d.PackageIDs))
	for b := range d.PackageIDs {
		names = append(names, b)
	}
	sort.Strings(names)
	return names
}

// ToolSummary is the machine-readable form of a catalog entry.
type ToolSummary struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name,omitempty"`
	Category    string            `json:"category,omitempty"`
	Executables []string          `json:"executables"`
	Packages    map[string]string `json:"packages,omitempty"`
	MinVersion  string            `json:"min_version,omitempty"`
	Groups      []string          `json:"groups,omitempty"`
}

// Summaries converts descriptors for JSON output. groupsOf may be nil.
func Summaries(tools []registry.ToolDescriptor, groupsOf func(string) []string) []ToolSummary {
	out := make([]ToolSummary, 0, len(tools))
	for _, t := range tools {
		s := ToolSummary{
			Name:        t.Name,
			DisplayName: t.DisplayName,
			Category:    t.Category,
			Executables: t.ExecutableNames,
			Packages:    t.PackageIDs,
			MinVersion:  t.MinVersion,
		}
		if groupsOf != nil {
			s.Groups = groupsOf(t.Name)
		}
		out = append(out, s)
	}
	return out
}
