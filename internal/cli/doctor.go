package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/devkit-labs/devkit/internal/backend"
	"github.com/devkit-labs/devkit/internal/branding"
	"github.com/devkit-labs/devkit/internal/config"
	"github.com/devkit-labs/devkit/internal/manifest"
	"github.com/spf13/cobra"
)

var checkCatalog string

func init() {
	doctorCmd.Flags().StringVar(&checkCatalog, "check-catalog", "", "Validate a catalog file at the given path")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for " + branding.DisplayName(),
	Long: `Run diagnostic checks: which package-manager backends are usable on this
host, whether the configuration file parses, and whether the tool catalog is valid.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if checkCatalog != "" {
			return runCatalogCheck(out, checkCatalog)
		}

		failed := 0
		config.Load()
		s := config.Current()

		failed += runConfigCheck(out)
		failed += runBackendCheck(cmd, out, s.Backends)
		failed += runEmbeddedCatalogCheck(out)
		if s.CatalogPath != "" {
			if err := runCatalogCheck(out, s.CatalogPath); err != nil {
				failed++
			}
		}

		if failed > 0 {
			return exitError(1, "doctor found %d problem(s)", failed)
		}
		return nil
	},
}

func runConfigCheck(w io.Writer) int {
	fmt.Fprintln(w, "Configuration:")
	path := config.FilePath()
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(w, "  [INFO] %s not found, using defaults\n", path)
		return 0
	}
	if err := config.Check(); err != nil {
		fmt.Fprintf(w, "  [FAIL] %s: %v\n", path, err)
		return 1
	}
	fmt.Fprintf(w, "  [ OK ] %s\n", path)
	return 0
}

func runBackendCheck(cmd *cobra.Command, w io.Writer, names []string) int {
	fmt.Fprintln(w, "Backends:")
	r := newRunner(cmd.ErrOrStderr())
	usable, failed := 0, 0
	for _, name := range names {
		b, err := backend.New(name, r)
		if err != nil {
			fmt.Fprintf(w, "  [FAIL] %v\n", err)
			failed++
			continue
		}
		if !b.Available(cmd.Context()) {
			fmt.Fprintf(w, "  [MISS] %s not found\n", b.Name())
			continue
		}
		fmt.Fprintf(w, "  [ OK ] %s available\n", b.Name())
		usable++
	}
	if usable == 0 {
		fmt.Fprintln(w, "  [WARN] no backend is usable; install and update will fail")
	}
	return failed
}

func runEmbeddedCatalogCheck(w io.Writer) int {
	fmt.Fprintln(w, "Catalog:")
	c, err := manifest.Default()
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] embedded catalog: %v\n", err)
		return 1
	}
	reg, err := c.Registry()
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] embedded catalog: %v\n", err)
		return 1
	}
	fmt.Fprintf(w, "  [ OK ] embedded catalog: %d tools, %d groups\n", reg.Len(), len(reg.Groups()))
	return 0
}

// runCatalogCheck validates the file at path against the catalog schema
// and then checks that it merges cleanly over the embedded catalog.
func runCatalogCheck(w io.Writer, path string) error {
	fmt.Fprintf(w, "Catalog validation: %s\n", path)

	result, err := manifest.ValidateFile(path)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return fmt.Errorf("catalog validation failed: %w", err)
	}
	if !result.Valid {
		fmt.Fprintf(w, "  [FAIL] %d validation issue(s):\n", len(result.Issues))
		for _, issue := range result.Issues {
			fmt.Fprintf(w, "    - %s\n", issue)
		}
		return fmt.Errorf("catalog %s has %d validation issue(s)", path, len(result.Issues))
	}

	overlay, err := manifest.ParseFile(path)
	if err != nil {
		fmt.Fprintf(w, "  [FAIL] %v\n", err)
		return fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	base, err := manifest.Default()
	if err != nil {
		return fmt.Errorf("loading embedded catalog: %w", err)
	}
	if _, err := manifest.Merge(base, overlay).Registry(); err != nil {
		fmt.Fprintf(w, "  [FAIL] does not merge with the embedded catalog: %v\n", err)
		return fmt.Errorf("catalog %s: %w", path, err)
	}

	fmt.Fprintf(w, "  [ OK ] valid catalog: %d tool(s), %d group(s)\n", len(overlay.Tools), len(overlay.Groups))
	return nil
}
