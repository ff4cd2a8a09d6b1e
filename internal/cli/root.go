package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/devkit-labs/devkit/internal/branding"
	"github.com/devkit-labs/devkit/internal/dispatch"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

// Selection flags. Action subcommands bind --all and --group to the same
// variables as the root command.
var (
	selectAll    bool
	selectGroup  string
	statusMode   bool
	statusModule string
	listMode     bool
)

// Output and provisioning flags shared by every command.
var (
	forceFlag    bool
	silentFlag   bool
	detailedFlag bool
	quietFlag    bool
	jsonFlag     bool
)

func init() {
	rootCmd.Flags().BoolVar(&selectAll, "all", false, "Apply the action to every registered tool")
	rootCmd.Flags().StringVar(&selectGroup, "group", "", "Apply the action to every member of a group")
	rootCmd.Flags().BoolVar(&statusMode, "status", false, "Report the status of every tool (or --module)")
	rootCmd.Flags().StringVar(&statusModule, "module", "", "Limit --status to one tool or group")
	rootCmd.Flags().BoolVar(&listMode, "list", false, "List registered tools")
	rootCmd.MarkFlagsMutuallyExclusive("all", "group", "status", "list")

	rootCmd.PersistentFlags().BoolVar(&forceFlag, "force", false, "Provision even when the tool is already installed")
	rootCmd.PersistentFlags().BoolVar(&silentFlag, "silent", false, "Ask backends for non-interactive, quiet operation")
	rootCmd.PersistentFlags().BoolVar(&detailedFlag, "detailed", false, "Show backend attempts, debug lines and install locations")
	rootCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", false, "Only log warnings and errors")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Write results as JSON")
	rootCmd.MarkFlagsMutuallyExclusive("detailed", "quiet")
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName() + " [tool|group] [action]",
	Short: branding.Description(),
	Long: branding.DisplayName() + ` detects, installs, updates, tests and removes developer tools
through the package managers available on this host.

Actions: ` + dispatch.ActionNames(),
	Example: `  ` + branding.CLIName() + ` git install
  ` + branding.CLIName() + ` dev-tools status
  ` + branding.CLIName() + ` --all check
  ` + branding.CLIName() + ` --group browsers update --silent
  ` + branding.CLIName() + ` --status --module docker
  ` + branding.CLIName() + ` --list`,
	Args:          cobra.MaximumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func runRoot(cmd *cobra.Command, args []string) error {
	switch {
	case listMode:
		if len(args) > 0 {
			return exitError(1, "--list takes no arguments")
		}
		return runList(cmd)
	case statusMode:
		if len(args) > 0 {
			return exitError(1, "--status takes no arguments; use --module to select a tool")
		}
		req := dispatch.Request{Action: dispatch.Status, All: statusModule == ""}
		if statusModule != "" {
			req.Targets = []string{statusModule}
		}
		return runRequest(cmd, req)
	case selectAll || selectGroup != "":
		if len(args) != 1 {
			return exitError(1, "expected exactly one action (%s)", dispatch.ActionNames())
		}
		action, err := parseAction(args[0])
		if err != nil {
			return err
		}
		return runRequest(cmd, dispatch.Request{All: selectAll, Group: selectGroup, Action: action})
	}

	switch len(args) {
	case 0:
		return cmd.Help()
	case 1:
		// A bare tool name reports its status.
		return runRequest(cmd, dispatch.Request{Targets: args[:1], Action: dispatch.Status})
	}
	action, err := parseAction(args[1])
	if err != nil {
		return err
	}
	return runRequest(cmd, dispatch.Request{Targets: args[:1], Action: action})
}

func parseAction(s string) (dispatch.Action, error) {
	a, err := dispatch.ParseAction(s)
	if err != nil {
		return 0, exitError(1, "%v", err)
	}
	return a, nil
}

// Execute runs the root command with build info injected via ldflags.
// An interrupt cancels the running subprocesses.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && err.Error() != "" {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}
