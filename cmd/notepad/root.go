package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/notepad"
)

var (
	verbose   bool
	adapter   string
	storePath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notepad",
	Short: "A notepad with a live, filterable note list",
	Long: `Notepad keeps short text notes in a local store (Markdown files or SQLite).
Notes are listed newest first, filtered as you type, and changes made by
other processes raise alerts that link back to the note.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "fs", "Storage adapter (fs, sqlite)")
	rootCmd.PersistentFlags().StringVarP(&storePath, "path", "p", "", "Store root (default: nearest store above the working directory)")
}

// resolveRoot returns --path, or the nearest store root above the working
// directory.
func resolveRoot() (string, error) {
	if storePath != "" {
		return storePath, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	root, err := notepad.FindRoot(wd)
	if errors.Is(err, notepad.ErrRootNotFound) {
		return "", fmt.Errorf("not a notepad store (run 'notepad init'): %w", err)
	}
	return root, err
}

// openApp opens an existing store.
func openApp(ctx context.Context, opts ...notepad.Option) (*notepad.App, error) {
	root, err := resolveRoot()
	if err != nil {
		return nil, err
	}
	opts = append([]notepad.Option{
		notepad.WithAdapter(adapter),
		notepad.WithMustExist(true),
		notepad.WithLogger(slog.Default()),
	}, opts...)
	return notepad.Open(ctx, root, opts...)
}
