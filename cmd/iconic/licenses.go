package main

import (
	"github.com/spf13/cobra"

	"github.com/oukeidos/iconic/internal/licenses"
)

func newLicensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "licenses",
		Short: "Show third-party module notices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return licenses.Write(cmd.OutOrStdout(), licenses.Notices())
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}
