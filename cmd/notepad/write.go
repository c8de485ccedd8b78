package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/notepad"
	"github.com/aretw0/notepad/pkg/editor"
)

var (
	writeTitle string
	writeBody  string
	pasteFrom  string
)

// newCmd represents the new command
var newCmd = &cobra.Command{
	Use:   "new [text...]",
	Short: "Write a new note",
	Long: `Write a new note. The body is taken from the arguments, --body, or stdin when
it is "-". A note left without a title is named after its first words; an
empty note is discarded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := bodyFrom(cmd, args)
		if err != nil {
			return err
		}
		return writeNote(cmd, editor.Request{Mode: editor.OpenNew}, body)
	},
}

// pasteCmd represents the paste command
var pasteCmd = &cobra.Command{
	Use:   "paste [text...]",
	Short: "Create a note from pasted text or a copy of another note",
	RunE: func(cmd *cobra.Command, args []string) error {
		var clip editor.Clip
		if pasteFrom != "" {
			clip.NoteID = pasteFrom
		}
		if text, err := bodyFrom(cmd, args); err != nil {
			return err
		} else if text != nil {
			clip.Text = *text
		}
		return writeNote(cmd, editor.Request{Mode: editor.OpenPaste, Clip: clip}, nil)
	},
}

// editCmd represents the edit command
var editCmd = &cobra.Command{
	Use:   "edit <id|link> [text...]",
	Short: "Replace the title or body of a note",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := editRequest(args[0])
		if err != nil {
			return err
		}
		body, err := bodyFrom(cmd, args[1:])
		if err != nil {
			return err
		}
		return writeNote(cmd, req, body)
	},
}

// writeNote runs one edit session: open, apply the fields, close.
func writeNote(cmd *cobra.Command, req editor.Request, body *string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	s, err := app.OpenEditor(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to open note: %w", err)
	}

	var title *string
	if cmd.Flags().Changed("title") {
		title = &writeTitle
	}
	if err := s.SetFields(title, body); err != nil {
		return err
	}
	if err := s.Close(ctx); err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}

	out := cmd.OutOrStdout()
	if s.Result() == editor.ResultCanceled {
		fmt.Fprintln(out, "Empty note discarded.")
		return nil
	}
	fmt.Fprintf(out, "Note saved: %s (%s)\n", s.ID(), s.Title())
	return nil
}

// bodyFrom returns the body given by --body or the arguments, or nil when
// neither is set. A single "-" argument reads stdin.
func bodyFrom(cmd *cobra.Command, args []string) (*string, error) {
	switch {
	case cmd.Flags().Changed("body"):
		return &writeBody, nil
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		text := string(data)
		return &text, nil
	case len(args) > 0:
		text := strings.Join(args, " ")
		return &text, nil
	}
	return nil, nil
}

// editRequest accepts a note ID or a notepad:// link.
func editRequest(ref string) (editor.Request, error) {
	if strings.HasPrefix(ref, editor.LinkScheme+"://") {
		l, err := editor.ParseLink(ref)
		if err != nil {
			return editor.Request{}, err
		}
		return l.Request(), nil
	}
	return editor.Request{Mode: editor.OpenEdit, ID: ref}, nil
}

// titleCmd represents the title command
var titleCmd = &cobra.Command{
	Use:   "title <id> <title...>",
	Short: "Rename a note",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		te, err := app.OpenTitleEditor(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to open note: %w", err)
		}
		if err := te.SetTitle(strings.Join(args[1:], " ")); err != nil {
			return err
		}
		if err := te.Close(ctx); err != nil {
			return fmt.Errorf("failed to rename note: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Note renamed: %s (%s)\n", te.ID(), te.Title())
		return nil
	},
}

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <id|link>",
	Short: "Print a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := editRequest(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		app, err := openApp(ctx, notepad.WithReadOnly(adapter == "fs"))
		if err != nil {
			return err
		}
		defer app.Close()

		n, err := app.Service().Get(ctx, req.ID)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n", n.Title)
		fmt.Fprintf(out, "created %s, modified %s\n\n", n.CreatedAt.Local().Format(timeLayout), n.ModifiedAt.Local().Format(timeLayout))
		fmt.Fprintln(out, n.Body)
		fmt.Fprintln(out, editor.EditLink(n.ID))
		return nil
	},
}

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <id|link>",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := editRequest(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := deleteNote(ctx, app, req); err != nil {
			return fmt.Errorf("failed to delete note: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Note deleted: %s\n", req.ID)
		return nil
	},
}

func deleteNote(ctx context.Context, app *notepad.App, req editor.Request) error {
	s, err := app.OpenEditor(ctx, req)
	if err != nil {
		return err
	}
	return s.Delete(ctx)
}

func init() {
	for _, c := range []*cobra.Command{newCmd, editCmd} {
		c.Flags().StringVar(&writeTitle, "title", "", "Note title")
		c.Flags().StringVar(&writeBody, "body", "", "Note body")
		rootCmd.AddCommand(c)
	}
	pasteCmd.Flags().StringVar(&pasteFrom, "from", "", "Copy the note with this ID")
	pasteCmd.Flags().StringVar(&writeTitle, "title", "", "Note title")
	pasteCmd.Flags().StringVar(&writeBody, "body", "", "Pasted text")
	rootCmd.AddCommand(pasteCmd, titleCmd, showCmd, deleteCmd)
}
