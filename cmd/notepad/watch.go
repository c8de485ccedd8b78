package main

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"

	"github.com/aretw0/notepad"
	"github.com/aretw0/notepad/pkg/notify"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print an alert for every note changed in the store",
	Long: `Watch the store until interrupted. Each created or modified note raises an
alert with its title, the start of its body and a link that opens it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := lifecycle.NewSignalContext(cmd.Context())
		defer ctx.Stop()

		app, err := openApp(ctx, notepad.WithPresenter(notify.NewWriterPresenter(cmd.OutOrStdout())))
		if err != nil {
			return err
		}
		defer app.Close()

		fmt.Fprintln(cmd.ErrOrStderr(), "Watching for changes (Ctrl+C to stop)...")
		if err := app.Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("watch failed: %w", err)
		}
		slog.Debug("watch stopped", "reason", ctx.Reason())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

