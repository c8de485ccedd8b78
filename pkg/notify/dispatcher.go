// Package notify turns change events for a note into user-facing alerts that
// link back to an edit session on that note.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/notepad/pkg/editor"
)

// SnippetLength is the maximum number of characters of body text in an alert.
const SnippetLength = 80

// ErrInvalidEvent is returned for events that do not name a note.
var ErrInvalidEvent = errors.New("change event without note id")

// ChangeEvent is an external change to one note.
type ChangeEvent struct {
	NoteID  string
	Title   string
	Snippet string
}

// Alert is what the user sees. Alerts with the same Tag replace each other,
// so duplicate deliveries of an event collapse into one alert.
type Alert struct {
	Tag   string
	Title string
	Text  string
	Link  editor.Link
}

// Presenter shows alerts to the user.
type Presenter interface {
	Present(ctx context.Context, a Alert) error
}

// Dispatcher translates change events into alerts. It keeps no state.
type Dispatcher struct {
	presenter Presenter
	logger    *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a dispatcher. A nil presenter only builds alerts.
func NewDispatcher(p Presenter, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		presenter: p,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch builds the alert for ev and hands it to the presenter.
func (d *Dispatcher) Dispatch(ctx context.Context, ev ChangeEvent) (Alert, error) {
	a, err := BuildAlert(ev)
	if err != nil {
		return Alert{}, err
	}
	if d.presenter != nil {
		if err := d.presenter.Present(ctx, a); err != nil {
			return a, fmt.Errorf("present alert %s: %w", a.Tag, err)
		}
	}
	d.logger.Debug("alert dispatched", "tag", a.Tag)
	return a, nil
}

// BuildAlert is the pure translation behind Dispatch.
func BuildAlert(ev ChangeEvent) (Alert, error) {
	id := strings.TrimSpace(ev.NoteID)
	if id == "" {
		return Alert{}, ErrInvalidEvent
	}
	return Alert{
		Tag:   AlertTag(id),
		Title: ev.Title,
		Text:  Snippet(ev.Snippet),
		Link:  editor.EditLink(id),
	}, nil
}

// AlertTag is the replacement key of alerts about note id.
func AlertTag(id string) string {
	return "note:" + id
}

// Snippet cuts text to SnippetLength characters, appending an ellipsis when cut.
func Snippet(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= SnippetLength {
		return text
	}
	return string([]rune(text)[:SnippetLength-1]) + "…"
}
