package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spendly/internal/cli"
)

func themeName(dark bool) string {
	if dark {
		return "dark"
	}
	return "light"
}

func newThemeCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [toggle|dark|light]",
		Short:     "Show or change the colour theme of the web front-end",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"toggle", "dark", "light"},
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs := get().prefs
			ctx := cmd.Context()
			var err error
			dark := prefs.DarkMode(ctx)
			if len(args) == 1 {
				switch args[0] {
				case "toggle":
					dark, err = prefs.ToggleDarkMode(ctx)
				case "dark":
					dark, err = true, prefs.SetDarkMode(ctx, true)
				case "light":
					dark, err = false, prefs.SetDarkMode(ctx, false)
				}
				if err != nil {
					return fmt.Errorf("save theme: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Theme:", themeName(dark), cli.Muted("(shared with the web front-end)"))
			return nil
		},
	}
}
