package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), "notepad %s: %s", strings.Join(args, " "), out.String())
	return out.String()
}

func TestCLI_Workflow(t *testing.T) {
	dir := t.TempDir()

	assert.Contains(t, run(t, "init", "--path", dir), "Initialized empty notepad store")

	out := run(t, "new", "--path", dir, "pick up the dry cleaning")
	assert.Contains(t, out, "(pick up the dry cleaning)")

	out = run(t, "new", "--path", dir, "--body", "", "--title", "")
	assert.Contains(t, out, "Empty note discarded.")

	out = run(t, "list", "--path", dir, "--filter", "DRY")
	assert.Contains(t, out, "pick up the dry cleaning")

	out = run(t, "bg", "--path", dir, "light-green")
	assert.Equal(t, "light-green\n", out)

	assert.Contains(t, run(t, "version"), "notepad version 0.1.0")
}

func TestCLI_WatchStopsWithContext(t *testing.T) {
	dir := t.TempDir()
	run(t, "init", "--path", dir)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	t.Cleanup(func() { rootCmd.SetContext(context.Background()) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"watch", "--path", dir})

	done := make(chan error, 1)
	go func() { done <- rootCmd.ExecuteContext(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop when its context ended")
	}
	assert.Contains(t, out.String(), "Watching for changes")
}
