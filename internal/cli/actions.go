package cli

import (
	"github.com/devkit-labs/devkit/internal/dispatch"
	"github.com/spf13/cobra"
)

var actionShort = map[dispatch.Action]string{
	dispatch.Install:   "Install tools through the first backend that can provide them",
	dispatch.Update:    "Update installed tools",
	dispatch.Uninstall: "Uninstall tools",
	dispatch.Test:      "Run each tool's smoke tests",
	dispatch.Check:     "Check installed versions against each tool's minimum",
	dispatch.Status:    "Report whether tools are installed and where",
	dispatch.Help:      "Describe tools: executables, packages, groups and tests",
}

func init() {
	for _, action := range dispatch.Actions {
		rootCmd.AddCommand(newActionCmd(action))
	}
}

// newActionCmd builds "<action> [targets...]". Help is registered as
// help-tool since cobra owns "help".
func newActionCmd(action dispatch.Action) *cobra.Command {
	use := action.String()
	if action == dispatch.Help {
		use = "help-tool"
	}
	cmd := &cobra.Command{
		Use:   use + " [tool|group...]",
		Short: actionShort[action],
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !selectAll && selectGroup == "" {
				return exitError(1, "%s: name at least one tool or group, or pass --all", use)
			}
			return runRequest(cmd, dispatch.Request{
				Targets: args,
				All:     selectAll,
				Group:   selectGroup,
				Action:  action,
			})
		},
	}
	cmd.Flags().BoolVar(&selectAll, "all", false, "Apply to every registered tool")
	cmd.Flags().StringVar(&selectGroup, "group", "", "Apply to every member of a group")
	return cmd
}
