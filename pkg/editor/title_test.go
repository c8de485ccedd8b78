package editor_test

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/editor"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"", ""},
		{"short", "short"},
		{"Buy milk and eggs today please", "Buy milk and eggs today please"},
		{"Buy milk and eggs today please, thanks", "Buy milk and eggs today"},
		{"Supercalifragilisticexpialidocious!", "Supercalifragilisticexpialidoc"},
		{" Supercalifragilisticexpialidocious", " Supercalifragilisticexpialido"},
		{strings.Repeat("é", 40), strings.Repeat("é", 30)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, editor.DeriveTitle(tt.body), "DeriveTitle(%q)", tt.body)
	}
}

func TestDeriveTitle_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		body := rapid.StringMatching(`[a-zé ]{0,60}`).Draw(t, "body")
		title := editor.DeriveTitle(body)

		if !strings.HasPrefix(body, title) {
			t.Fatalf("title %q is not a prefix of %q", title, body)
		}
		if n := utf8.RuneCountInString(title); n > 30 {
			t.Fatalf("title %q has %d runes", title, n)
		}
		if utf8.RuneCountInString(body) <= 30 && title != body {
			t.Fatalf("short body %q changed to %q", body, title)
		}
	})
}

func TestTitleEditor(t *testing.T) {
	f := newFixture(t)
	id := f.store.Seed(core.Note{Title: "Old", Body: "body stays"})
	before := f.get(t, id)
	ctx := context.Background()

	e, err := editor.OpenTitle(ctx, f.service, id, f.options())
	require.NoError(t, err)
	assert.Equal(t, "Old", e.Title())

	require.NoError(t, e.SetTitle("New"))
	require.NoError(t, e.Close(ctx))

	n := f.get(t, id)
	assert.Equal(t, "New", n.Title)
	assert.Equal(t, "body stays", n.Body)
	assert.True(t, n.ModifiedAt.After(before.ModifiedAt))

	assert.NoError(t, e.Close(ctx), "second close is a no-op")
	assert.ErrorIs(t, e.SetTitle("again"), core.ErrInvalidState)
	assert.Equal(t, 1, f.store.CountCalls("update"))
}

func TestTitleEditor_SuspendWritesUnconditionally(t *testing.T) {
	f := newFixture(t)
	id := f.store.Seed(core.Note{Title: "Same", Body: "b"})
	before := f.get(t, id)
	ctx := context.Background()

	e, err := editor.OpenTitle(ctx, f.service, id, f.options())
	require.NoError(t, err)
	require.NoError(t, e.Suspend())
	require.NoError(t, e.Resume(ctx))

	n := f.get(t, id)
	assert.Equal(t, "Same", n.Title)
	assert.True(t, n.ModifiedAt.After(before.ModifiedAt))
}

func TestTitleEditor_ResumeKeepsEdits(t *testing.T) {
	f := newFixture(t)
	id := f.store.Seed(core.Note{Title: "Old", Body: "b"})
	ctx := context.Background()

	e, err := editor.OpenTitle(ctx, f.service, id, f.options())
	require.NoError(t, err)

	title := "Remote"
	require.NoError(t, f.store.Update(ctx, id, core.Patch{Title: &title}))
	require.NoError(t, e.Resume(ctx))
	assert.Equal(t, "Remote", e.Title())

	require.NoError(t, e.SetTitle("Mine"))
	require.NoError(t, e.Resume(ctx))
	assert.Equal(t, "Mine", e.Title())
}

func TestTitleEditor_Missing(t *testing.T) {
	f := newFixture(t)
	_, err := editor.OpenTitle(context.Background(), f.service, "missing", f.options())
	assert.ErrorIs(t, err, core.ErrNotFound)
}
