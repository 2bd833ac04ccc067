package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oukeidos/iconic/internal/version"
)

func newAboutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "about",
		Short: "Show a short description and link",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "iconic: rotating 64x64 server icons with date-specific overrides")
			fmt.Fprintln(out, "https://github.com/oukeidos/iconic")
			fmt.Fprintln(out, version.UserAgent())
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}
