// Package notepad is the composition root of the notepad application.
//
// It connects the note editors, the live note list and the change alerts
// (pkg/editor, pkg/livequery, pkg/notify) to a store adapter (pkg/adapters/fs
// or pkg/adapters/sqlite) through the core.Service store client.
//
// Features:
//
//   - **Edit sessions that never lose data**: interruptions save, abandoned
//     empty notes leave no record, revert restores the body of the session start.
//   - **Live list**: the filtered list follows store changes and recycles its
//     result handles safely.
//   - **Alerts with deep links**: every external change raises an alert that
//     reopens the note in an editor.
//   - **Pluggable storage**: Markdown files with YAML frontmatter, or SQLite.
//
// Usage:
//
//	app, err := notepad.Open(ctx, "./notes",
//		notepad.WithAdapter("sqlite"),
//		notepad.WithLogger(logger),
//	)
//	defer app.Close()
//
//	s, err := app.OpenEditor(ctx, editor.Request{Mode: editor.OpenNew})
//	_ = s.SetFields(nil, &body)
//	err = s.Close(ctx)
package notepad
