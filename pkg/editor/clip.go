package editor

import "github.com/aretw0/notepad/pkg/core"

// Clip is clipboard content offered to OpenPaste.
// A clip that references a note pastes that note's title and body; a clip
// whose note is gone (or that carries no reference) pastes Text as the body.
type Clip struct {
	NoteID string
	Text   string
}

// ClipOf copies a note to a clip.
func ClipOf(n core.Note) Clip {
	return Clip{NoteID: n.ID, Text: n.Body}
}

// TextClip is a clip of plain text.
func TextClip(text string) Clip {
	return Clip{Text: text}
}
