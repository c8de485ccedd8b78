package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/notepad"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a notepad store",
	Long:  `Initialize a new store in --path or the current directory, creating the notes and system directories.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := storePath
		if root == "" {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			root = wd
		}

		app, err := notepad.Open(cmd.Context(), root,
			notepad.WithAdapter(adapter),
			notepad.WithLogger(slog.Default()),
		)
		if err != nil {
			return fmt.Errorf("failed to initialize store: %w", err)
		}
		defer app.Close()

		fmt.Fprintln(cmd.OutOrStdout(), "Initialized empty notepad store in", root)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
