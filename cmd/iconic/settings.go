package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/oukeidos/iconic/internal/apperrors"
	"github.com/oukeidos/iconic/internal/selection"
	"github.com/oukeidos/iconic/internal/service"
)

func newSetIntervalCmd(gopts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setinterval <seconds>",
		Short: "Set the rotation interval for cycle mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.Atoi(args[0])
			if err != nil {
				return apperrors.InvalidArgument("Invalid number %q.", args[0])
			}
			return withService(cmd.Context(), gopts, func(ctx context.Context, svc *service.Service) error {
				if err := svc.SetInterval(ctx, seconds); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Icon rotation interval set to %d seconds.\n", seconds)
				return nil
			})
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newSetModeCmd(gopts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "setmode <mode>",
		Short:     "Set the icon selection mode (" + selection.ModeList() + ")",
		Args:      cobra.ExactArgs(1),
		ValidArgs: modeNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), gopts, func(ctx context.Context, svc *service.Service) error {
				mode, err := svc.SetMode(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Icon selection mode set to %s\n", mode)
				return nil
			})
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func modeNames() []string {
	names := make([]string, len(selection.Modes))
	for i, m := range selection.Modes {
		names[i] = string(m)
	}
	return names
}

func newAddDateIconCmd(gopts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "adddateicon <dd.mm> <name|id>",
		Short:   "Show an icon on a specific day every year",
		Example: "  iconic adddateicon 24.12 xmas.png",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), gopts, func(ctx context.Context, svc *service.Service) error {
				key, name, err := svc.AddDateIcon(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added date-specific icon for %s: %s\n", key, name)
				return nil
			})
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newRemoveDateIconCmd(gopts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "removedateicon <dd.mm>",
		Short: "Remove a date-specific icon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), gopts, func(ctx context.Context, svc *service.Service) error {
				removed, err := svc.RemoveDateIcon(ctx, args[0])
				if err != nil {
					return err
				}
				if removed {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed date-specific icon for %s\n", args[0])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "No date-specific icon set for %s\n", args[0])
				}
				return nil
			})
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}
