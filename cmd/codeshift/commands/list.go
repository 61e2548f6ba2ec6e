package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codeshift/pkg/report"
	"github.com/Sumatoshi-tech/codeshift/pkg/rules"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the available rules",
		Long:  "Show every rule in the order it is applied, with its package gate and options.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return report.WriteRules(cmd.OutOrStdout(), rules.All())
		},
	}
}
