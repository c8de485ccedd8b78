package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/notepad/pkg/core"
)

const timeLayout = "2006-01-02 15:04"

var (
	listJSON   bool
	listFilter string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, newest first",
	Long: `List notes whose title or body contains the filter text.
The filter is remembered; pass --filter "" to clear it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if cmd.Flags().Changed("filter") {
			if err := app.SetFilter(ctx, listFilter); err != nil {
				return fmt.Errorf("failed to filter notes: %w", err)
			}
		}

		var notes []core.Note
		for n := range app.CurrentResults() {
			notes = append(notes, n)
		}

		out := cmd.OutOrStdout()
		if listJSON {
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(notes)
		}

		for _, n := range notes {
			fmt.Fprintf(out, "%s  %s  %s\n", n.ID, n.ModifiedAt.Local().Format(timeLayout), n.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "", "Only list notes containing this text")
}
