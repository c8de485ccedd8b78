package editor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/editor"
)

func TestLink_String(t *testing.T) {
	assert.Equal(t, "notepad://notes/abc-123/edit", editor.EditLink("abc-123").String())
}

func TestParseLink(t *testing.T) {
	for _, id := range []string{"abc-123", "with space", "a/b"} {
		l, err := editor.ParseLink(editor.EditLink(id).String())
		require.NoError(t, err, "id %q", id)
		assert.Equal(t, id, l.NoteID)
	}

	for _, raw := range []string{
		"http://notes/abc/edit",
		"notepad://other/abc/edit",
		"notepad://notes/abc",
		"notepad://notes//edit",
		"notepad://notes/abc/view",
	} {
		_, err := editor.ParseLink(raw)
		assert.ErrorIs(t, err, editor.ErrInvalidLink, "link %q", raw)
	}
}

func TestLink_OpenEditsNote(t *testing.T) {
	f := newFixture(t)
	id := f.store.Seed(core.Note{Title: "A", Body: "B"})

	s, err := editor.EditLink(id).Open(context.Background(), f.service, f.options())
	require.NoError(t, err)
	assert.Equal(t, editor.StateEdit, s.State())
	assert.Equal(t, id, s.ID())
}
