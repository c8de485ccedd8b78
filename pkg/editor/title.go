package editor

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/aretw0/notepad/pkg/core"
)

// titleLength is the number of characters of the body used for a derived title.
const titleLength = 30

// DeriveTitle builds a title from the start of body: the first 30
// characters, cut back to the last space when the body is longer and a space
// exists past the first character.
func DeriveTitle(body string) string {
	if utf8.RuneCountInString(body) <= titleLength {
		return body
	}
	cut := string([]rune(body)[:titleLength])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut
}

// TitleEditor edits only the title of an existing note.
// Each suspend writes the title and a fresh modification time; the body is
// never touched.
type TitleEditor struct {
	store  Store
	id     string
	opts   Options
	queue  *writeQueue
	mu     sync.Mutex
	title  string
	edited bool
	closed bool
}

// OpenTitle reads the current title of note id.
func OpenTitle(ctx context.Context, store Store, id string, opts Options) (*TitleEditor, error) {
	opts = opts.withDefaults()
	n, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	e := &TitleEditor{
		store: store,
		id:    id,
		opts:  opts,
		title: n.Title,
	}
	e.queue = newWriteQueue(func(err error) {
		opts.Logger.Error("title write panicked", "id", id, "error", err)
		opts.report(err)
	})
	return e, nil
}

func (e *TitleEditor) ID() string { return e.id }

func (e *TitleEditor) Title() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.title
}

// SetTitle records a user edit.
func (e *TitleEditor) SetTitle(title string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return core.ErrInvalidState
	}
	e.title = title
	e.edited = true
	return nil
}

// Resume re-reads the title unless the user has edited it.
func (e *TitleEditor) Resume(ctx context.Context) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return core.ErrInvalidState
	}
	return e.queue.await(ctx, func(ctx context.Context) error {
		n, err := e.store.Get(ctx, e.id)
		if err != nil {
			return err
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.edited {
			e.title = n.Title
		}
		return nil
	})
}

// Suspend schedules a write of the current title and returns immediately.
func (e *TitleEditor) Suspend() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return core.ErrInvalidState
	}
	e.schedule(e.title)
	return nil
}

// schedule queues a title write. Caller holds e.mu.
func (e *TitleEditor) schedule(title string) {
	title = strings.TrimSpace(title)
	e.queue.submit(func(ctx context.Context) {
		err := retryUnavailable(ctx, func(ctx context.Context) error {
			return e.store.Update(ctx, e.id, core.Patch{Title: &title, ModifiedAt: e.opts.Clock()})
		})
		if err != nil {
			e.opts.Logger.Warn("title save failed", "id", e.id, "error", err)
			e.opts.report(err)
			return
		}
		e.opts.Logger.Debug("title saved", "id", e.id)
	})
}

// Close writes the title one last time and waits for pending writes within
// Options.CloseTimeout. Closing twice is a no-op.
func (e *TitleEditor) Close(ctx context.Context) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		e.schedule(e.title)
	}
	e.mu.Unlock()

	timer := time.NewTimer(e.opts.CloseTimeout)
	defer timer.Stop()

	select {
	case <-e.queue.idle():
		return nil
	case <-timer.C:
		return ErrCloseTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
