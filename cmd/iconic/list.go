package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
	"github.com/spf13/cobra"

	"github.com/oukeidos/iconic/internal/service"
)

const maxNameWidth = 40

func newListCmd(gopts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available icons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), gopts, func(ctx context.Context, svc *service.Service) error {
				entries, err := svc.List(ctx)
				if err != nil {
					return err
				}
				st, err := svc.Status(ctx)
				if err != nil {
					return err
				}
				printList(cmd, entries, st)
				return nil
			})
		},
	}
	cmd.SetUsageTemplate(subcommandUsageTemplate)
	return cmd
}

func printList(cmd *cobra.Command, entries []service.ListEntry, st service.Status) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Mode: %s, rotation every %ds\n", st.Mode, st.IntervalSeconds)
	if st.DefaultIcon != "" && !st.DefaultAvailable {
		fmt.Fprintf(out, "Default icon %s is missing.\n", st.DefaultIcon)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No icons available.")
		return
	}

	width := 0
	for _, e := range entries {
		if w := uniseg.StringWidth(e.Name); w > width {
			width = w
		}
	}
	if width > maxNameWidth {
		width = maxNameWidth
	}

	fmt.Fprintln(out, "Available icons:")
	for _, e := range entries {
		var marks []string
		if e.Current {
			marks = append(marks, "current")
		}
		if e.Default {
			marks = append(marks, "default")
		}
		if len(e.Dates) > 0 {
			marks = append(marks, "dates: "+joinDates(e.Dates))
		}
		line := fmt.Sprintf("  [%d] %s", e.Index, padRight(truncate(e.Name, width), width))
		if len(marks) > 0 {
			line += "  (" + strings.Join(marks, "; ") + ")"
		}
		fmt.Fprintln(out, strings.TrimRight(line, " "))
	}
}

// truncate cuts s to at most width terminal cells, marking the cut with "…".
func truncate(s string, width int) string {
	if uniseg.StringWidth(s) <= width {
		return s
	}
	var b strings.Builder
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := g.Width()
		if used+w > width-1 {
			break
		}
		b.WriteString(g.Str())
		used += w
	}
	b.WriteString("…")
	return b.String()
}

func padRight(s string, width int) string {
	if pad := width - uniseg.StringWidth(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}
