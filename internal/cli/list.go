package cli

import (
	"fmt"

	"github.com/devkit-labs/devkit/internal/report"
	"github.com/spf13/cobra"
)

var listCategory string

func init() {
	listCmd.Flags().StringVar(&listCategory, "category", "", "Only list tools in this category")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(groupsCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered tools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd)
	},
}

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List tool groups and their members",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if jsonFlag {
			return report.WriteJSON(cmd.OutOrStdout(), reg.Groups())
		}
		report.WriteGroups(cmd.OutOrStdout(), reg.Groups())
		return nil
	},
}

func runList(cmd *cobra.Command) error {
	_, reg, err := loadRegistry()
	if err != nil {
		return err
	}

	tools := reg.All()
	if listCategory != "" {
		filtered := tools[:0]
		for _, t := range tools {
			if t.Category == listCategory {
				filtered = append(filtered, t)
			}
		}
		tools = filtered
	}

	out := cmd.OutOrStdout()
	if jsonFlag {
		return report.WriteJSON(out, report.Summaries(tools, reg.GroupsOf))
	}
	if len(tools) == 0 {
		fmt.Fprintln(out, "No tools found.")
		return nil
	}
	report.WriteList(out, tools)
	return nil
}
