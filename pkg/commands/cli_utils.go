package commands

import (
	"github.com/spf13/cobra"

	"github.com/automationhub/console/modules"
)

// NewUtilityCommands creates all utility commands (check_tr_usage, qs, roles)
func NewUtilityCommands() []*cobra.Command {
	return []*cobra.Command{
		newCheckTrUsageCmd(),
		newQSCmd(),
		newRolesCmd(),
	}
}

func newCheckTrUsageCmd() *cobra.Command {
	var languages []string
	cmd := &cobra.Command{
		Use:   "check_tr_usage",
		Short: "Check every translation key used in code exists in all locales",
		Long:  `Walks the source tree for T(...) calls and MessageID literals and reports keys missing from any of the allowed locales.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return CheckTrUsage(languages, modules.BuiltInModules...)
		},
	}
	cmd.Flags().StringSliceVar(&languages, "lang", []string{"en", "zh"}, "locales every key must exist in")
	return cmd
}
