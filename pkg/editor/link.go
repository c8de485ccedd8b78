package editor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// LinkScheme is the URL scheme of note deep links.
const LinkScheme = "notepad"

// ErrInvalidLink is returned when a string is not a note deep link.
var ErrInvalidLink = errors.New("invalid note link")

// Link reopens a note in EDIT mode, e.g. from an alert.
type Link struct {
	NoteID string
}

// EditLink returns the deep link for note id.
func EditLink(id string) Link {
	return Link{NoteID: id}
}

// String renders the link as notepad://notes/<id>/edit.
func (l Link) String() string {
	return LinkScheme + "://notes/" + url.PathEscape(l.NoteID) + "/edit"
}

// ParseLink parses a link produced by Link.String.
func ParseLink(raw string) (Link, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Link{}, fmt.Errorf("%w: %w", ErrInvalidLink, err)
	}
	if u.Scheme != LinkScheme || u.Host != "notes" {
		return Link{}, fmt.Errorf("%w: %s", ErrInvalidLink, raw)
	}
	parts := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	if len(parts) != 2 || parts[1] != "edit" || parts[0] == "" {
		return Link{}, fmt.Errorf("%w: %s", ErrInvalidLink, raw)
	}
	id, err := url.PathUnescape(parts[0])
	if err != nil {
		return Link{}, fmt.Errorf("%w: %w", ErrInvalidLink, err)
	}
	return Link{NoteID: id}, nil
}

// Request is the open request the link stands for.
func (l Link) Request() Request {
	return Request{Mode: OpenEdit, ID: l.NoteID}
}

// Open starts an EDIT session on the linked note.
func (l Link) Open(ctx context.Context, store Store, opts Options) (*Session, error) {
	return Open(ctx, store, l.Request(), opts)
}
