package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oukeidos/iconic/internal/service"
)

func newRefreshCmd(gopts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Rescan the icons directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), gopts, func(ctx context.Context, svc *service.Service) error {
				n, err := svc.Refresh(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Icon list refreshed. %d icons loaded.\n", n)
				return nil
			})
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

type downloadOptions struct {
	yes bool
}

func newDownloadCmd(gopts *globalOptions) *cobra.Command {
	opts := downloadOptions{}
	cmd := &cobra.Command{
		Use:   "download <url> [name]",
		Short: "Download an image over HTTPS and add it as an icon",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			return withService(cmd.Context(), gopts, func(ctx context.Context, svc *service.Service) error {
				return runDownload(ctx, cmd, svc, args[0], name, opts)
			})
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Overwrite an existing icon without asking")
	return cmd
}

func runDownload(ctx context.Context, cmd *cobra.Command, svc *service.Service, url, name string, opts downloadOptions) error {
	if name != "" {
		target, err := svc.DownloadName(name)
		if err != nil {
			return err
		}
		if svc.IconExists(target) {
			ok, err := confirmer().ConfirmOverwrite(target, opts.yes)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Download cancelled.")
				return nil
			}
		}
	}
	res, err := svc.Download(ctx, url, name)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	if res.Resized {
		fmt.Fprintf(cmd.OutOrStdout(), "Icon downloaded and converted: %s (from %dx%d %s)\n", res.Name, res.Width, res.Height, res.Format)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Icon downloaded: %s\n", res.Name)
	}
	return nil
}

func newSetCmd(gopts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <name|id>",
		Short: "Set the default icon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), gopts, func(ctx context.Context, svc *service.Service) error {
				name, err := svc.SetDefault(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Default icon set to %s\n", name)
				return nil
			})
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newProcessCmd(gopts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Convert images waiting in the drop folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Processing input icons...")
			svc, err := openService(cmd.Context(), gopts.paths(), true)
			if err != nil {
				return err
			}
			defer svc.Close()
			report, err := svc.ProcessInput(cmd.Context())
			if err != nil {
				return err
			}
			for _, r := range report.Committed {
				fmt.Fprintf(out, "  added %s\n", r.Name)
			}
			for _, f := range report.Failed {
				fmt.Fprintf(out, "  skipped %s: %v\n", f.Source, f.Err)
			}
			fmt.Fprintf(out, "Done. %d added, %d skipped.\n", len(report.Committed), len(report.Failed))
			return nil
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func newRenameCmd(gopts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <name|id> <newName>",
		Short: "Rename an icon",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), gopts, func(ctx context.Context, svc *service.Service) error {
				from, to, err := svc.Rename(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Icon renamed from %s to %s\n", from, to)
				return nil
			})
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func joinDates(dates []string) string {
	return strings.Join(dates, ", ")
}
