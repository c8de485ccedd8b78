package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/notepad/pkg/prefs"
)

// bgCmd represents the bg command
var bgCmd = &cobra.Command{
	Use:   "bg [color]",
	Short: "Show or set the note list background color",
	Long:  "Show or set the note list background color. Colors: " + strings.Join(prefs.Backgrounds, ", "),
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if len(args) == 1 {
			if err := app.SetBackground(args[0]); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), app.Preferences().Background)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bgCmd)
}
