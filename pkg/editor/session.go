// Package editor implements the note edit session: it reconciles in-progress
// edits, interruptions, paste-merges and cancel/revert/delete against the
// durable record. It also hosts the quick title editor and the deep links
// used to reopen a note.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/notepad/pkg/core"
)

// DefaultCloseTimeout bounds how long Close waits for pending writes.
const DefaultCloseTimeout = 5 * time.Second

// ErrCloseTimeout is returned by Close when pending writes did not finish in time.
// They keep running in the background.
var ErrCloseTimeout = errors.New("timed out waiting for pending writes")

// Store is the part of the store client the editors use.
// *core.Service satisfies it.
type Store interface {
	Create(ctx context.Context, f core.Fields) (string, error)
	Get(ctx context.Context, id string) (core.Note, error)
	Update(ctx context.Context, id string, p core.Patch) error
	Delete(ctx context.Context, id string) error
}

// Mode selects how a session is opened.
type Mode int

const (
	// OpenEdit opens an existing note.
	OpenEdit Mode = iota
	// OpenNew creates an empty record up front.
	OpenNew
	// OpenPaste creates a record and merges a clip into it.
	OpenPaste
)

// State is the lifecycle state of a session.
type State int

const (
	StateInsert State = iota
	StateEdit
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInsert:
		return "insert"
	case StateEdit:
		return "edit"
	case StateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Result tells the opener whether the session left a note behind.
type Result int

const (
	ResultOK Result = iota
	ResultCanceled
)

func (r Result) String() string {
	if r == ResultCanceled {
		return "canceled"
	}
	return "ok"
}

// Request describes what to open.
type Request struct {
	Mode Mode
	ID   string // OpenEdit only
	Clip Clip   // OpenPaste only
}

// Options configures a session or a title editor.
type Options struct {
	Logger *slog.Logger
	Clock  func() time.Time
	// ErrorHandler receives failures of background writes. They never block
	// the caller; in-memory fields stay authoritative.
	ErrorHandler func(error)
	CloseTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.CloseTimeout <= 0 {
		o.CloseTimeout = DefaultCloseTimeout
	}
	return o
}

func (o Options) report(err error) {
	if o.ErrorHandler != nil {
		o.ErrorHandler(err)
	}
}

// Session is an edit session over one note. It is never persisted.
//
// All store calls of a session run on a single serial queue, in call order.
// Accessors are safe for concurrent use.
type Session struct {
	store  Store
	opts   Options
	logger *slog.Logger
	queue  *writeQueue

	mu         sync.Mutex
	id         string
	state      State
	result     Result
	snapshot   string
	title      string
	body       string
	dirty      bool
	closed     bool
	persisted  core.Note // last title/body known to be in the store
	createdAt  time.Time
	modifiedAt time.Time
}

// Open starts a session according to req.
func Open(ctx context.Context, store Store, req Request, opts Options) (*Session, error) {
	opts = opts.withDefaults()
	s := &Session{
		store:  store,
		opts:   opts,
		logger: opts.Logger,
	}
	s.queue = newWriteQueue(func(err error) {
		s.logger.Error("editor write panicked", "id", s.ID(), "error", err)
		opts.report(err)
	})

	switch req.Mode {
	case OpenEdit:
		if err := s.openEdit(ctx, req.ID); err != nil {
			return nil, err
		}
	case OpenNew:
		if err := s.openNew(ctx); err != nil {
			return nil, err
		}
	case OpenPaste:
		if err := s.openPaste(ctx, req.Clip); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown open mode %d", req.Mode)
	}

	s.logger.Debug("editor opened", "id", s.id, "state", s.state)
	return s, nil
}

func (s *Session) openEdit(ctx context.Context, id string) error {
	n, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("open note %s: %w", id, err)
	}
	s.id = n.ID
	s.state = StateEdit
	s.snapshot = n.Body
	s.load(n)
	return nil
}

func (s *Session) openNew(ctx context.Context) error {
	id, err := s.store.Create(ctx, core.Fields{})
	if err != nil {
		return core.Unavailable("open new note", err)
	}
	s.id = id
	s.state = StateInsert
	s.snapshot = ""
	return nil
}

func (s *Session) openPaste(ctx context.Context, clip Clip) error {
	if err := s.openNew(ctx); err != nil {
		return err
	}

	// 1. Resolve the clip: a note reference wins over plain text.
	title, body := "", clip.Text
	if clip.NoteID != "" {
		if n, err := s.store.Get(ctx, clip.NoteID); err == nil {
			title, body = n.Title, n.Body
		} else {
			s.logger.Warn("clip note unreadable, pasting text", "clip", clip.NoteID, "error", err)
		}
	}

	// 2. Write through the INSERT save path.
	s.title, s.body = title, body
	if err := s.persist(ctx, StateInsert, title, body); err != nil {
		if derr := s.store.Delete(ctx, s.id); derr != nil {
			s.logger.Warn("failed to discard paste target", "id", s.id, "error", derr)
		}
		return fmt.Errorf("paste into new note: %w", err)
	}

	// 3. The merged body is what Revert goes back to.
	s.snapshot = body
	return nil
}

// ID returns the target record id.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

func (s *Session) Body() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.body
}

// Snapshot returns the body Revert restores in EDIT state.
func (s *Session) Snapshot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Timestamps returns the cached creation and modification times.
func (s *Session) Timestamps() (created, modified time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createdAt, s.modifiedAt
}

// Heading is the screen title for the session.
func (s *Session) Heading() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state == StateInsert:
		return "New note"
	case s.persisted.Title != "":
		return "Edit: " + s.persisted.Title
	default:
		return "Edit note"
	}
}

// CanRevert reports whether the visible body differs from the stored one.
func (s *Session) CanRevert() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.state != StateTerminated && s.body != s.persisted.Body
}

// checkOpen rejects commands once the session is terminated or closed.
func (s *Session) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state == StateTerminated {
		return core.ErrInvalidState
	}
	return nil
}

// SetFields records user edits. Nil leaves a field unchanged.
func (s *Session) SetFields(title, body *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state == StateTerminated {
		return core.ErrInvalidState
	}
	if title != nil {
		s.title = *title
	}
	if body != nil {
		s.body = *body
	}
	s.dirty = true
	return nil
}

// Suspend schedules the save decision for an interruption and returns
// immediately. finishing means the screen is going away for good: an INSERT
// session with an empty body is then discarded instead of saved.
func (s *Session) Suspend(finishing bool) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.queue.submit(func(ctx context.Context) {
		s.suspend(ctx, finishing)
	})
	return nil
}

func (s *Session) suspend(ctx context.Context, finishing bool) {
	s.mu.Lock()
	state, title, body := s.state, s.title, s.body
	s.mu.Unlock()

	switch {
	case state == StateTerminated:
		return
	case finishing && state == StateInsert && body == "":
		err := retryUnavailable(ctx, func(ctx context.Context) error {
			return s.store.Delete(ctx, s.id)
		})
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			s.warn("discard empty note", err)
			return
		}
		s.terminate(ResultCanceled)
		s.logger.Debug("empty note discarded", "id", s.id)
	default:
		err := retryUnavailable(ctx, func(ctx context.Context) error {
			return s.persist(ctx, state, title, body)
		})
		if err != nil {
			s.warn("save note", err)
		}
	}
}

// Save writes the visible fields now and ends the session.
// On failure the session stays open, unless the record is gone.
func (s *Session) Save(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.queue.await(ctx, func(ctx context.Context) error {
		s.mu.Lock()
		state, title, body := s.state, s.title, s.body
		s.mu.Unlock()
		if state == StateTerminated {
			return core.ErrInvalidState
		}

		if err := s.persist(ctx, state, title, body); err != nil {
			return err
		}
		s.terminate(ResultOK)
		return nil
	})
}

// Delete removes the record regardless of state and ends the session.
// Other than ErrNotFound, failures leave the session open for a retry.
func (s *Session) Delete(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.queue.await(ctx, func(ctx context.Context) error {
		if s.State() == StateTerminated {
			return core.ErrInvalidState
		}
		return s.delete(ctx)
	})
}

func (s *Session) delete(ctx context.Context) error {
	err := s.store.Delete(ctx, s.id)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return err
	}
	s.terminate(ResultCanceled)
	s.logger.Debug("note deleted", "id", s.id)
	return err
}

// Revert cancels the edit. In EDIT state the body goes back to the snapshot
// (the title is kept) and the session stays open; in INSERT state the
// record is deleted.
func (s *Session) Revert(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.queue.await(ctx, func(ctx context.Context) error {
		s.mu.Lock()
		state, snapshot := s.state, s.snapshot
		s.mu.Unlock()

		switch state {
		case StateTerminated:
			return core.ErrInvalidState
		case StateInsert:
			return s.delete(ctx)
		}

		// 1. Restore the body only.
		err := s.store.Update(ctx, s.id, core.Patch{Body: &snapshot, ModifiedAt: s.opts.Clock()})
		if err != nil {
			return s.checkGone(err)
		}

		// 2. The visible fields follow the record.
		n, err := s.store.Get(ctx, s.id)
		if err != nil {
			return s.checkGone(err)
		}
		s.mu.Lock()
		s.load(n)
		s.mu.Unlock()
		return nil
	})
}

// Resume re-reads the record after an interruption. Visible fields are
// refreshed unless they hold unsaved edits.
func (s *Session) Resume(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.queue.await(ctx, func(ctx context.Context) error {
		n, err := s.store.Get(ctx, s.id)
		if err != nil {
			return s.checkGone(err)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state == StateTerminated {
			return core.ErrInvalidState
		}
		if s.dirty {
			s.persisted = n
			s.createdAt, s.modifiedAt = n.CreatedAt, n.ModifiedAt
			return nil
		}
		s.load(n)
		return nil
	})
}

// Flush waits until every queued write has run.
func (s *Session) Flush(ctx context.Context) error {
	select {
	case <-s.queue.idle():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close is the final suspend: it schedules the save decision, ends the
// session once that write has run and waits for the queue within
// Options.CloseTimeout. Every later command except Close returns
// core.ErrInvalidState; closing again only drains the queue.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	final := !s.closed && s.state != StateTerminated
	s.closed = true
	s.mu.Unlock()

	if final {
		s.queue.submit(func(ctx context.Context) {
			s.suspend(ctx, true)
			s.finish()
		})
	}

	timer := time.NewTimer(s.opts.CloseTimeout)
	defer timer.Stop()

	select {
	case <-s.queue.idle():
		return nil
	case <-timer.C:
		s.logger.Warn("editor closed with pending writes", "id", s.ID())
		return ErrCloseTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish terminates a closed session that is still open, keeping the result
// of an earlier termination.
func (s *Session) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTerminated {
		s.state = StateTerminated
		s.result = ResultOK
	}
}

// persist is the single save primitive used by suspend, save and paste.
// In INSERT state a blank title is derived from the body and the creation
// time is refreshed; a successful write moves the session to EDIT.
func (s *Session) persist(ctx context.Context, state State, title, body string) error {
	now := s.opts.Clock()
	p := core.Patch{Body: &body, ModifiedAt: now}

	stored := strings.TrimSpace(title)
	if state == StateInsert {
		if stored == "" {
			stored = DeriveTitle(body)
		}
		p.CreatedAt = &now
	}
	if stored != "" {
		p.Title = &stored
	}

	if err := s.store.Update(ctx, s.id, p); err != nil {
		return s.checkGone(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateInsert {
		s.state = StateEdit
		s.createdAt = now
	}
	s.modifiedAt = now
	s.persisted.Body = body
	if p.Title != nil {
		s.persisted.Title = stored
		if strings.TrimSpace(s.title) == "" && s.title == title {
			s.title = stored
		}
	}
	if s.title == title && s.body == body {
		s.dirty = false
	}
	s.logger.Debug("note saved", "id", s.id, "state", s.state)
	return nil
}

// load copies a record into the visible fields. Caller holds s.mu.
func (s *Session) load(n core.Note) {
	s.title, s.body = n.Title, n.Body
	s.persisted = n
	s.createdAt, s.modifiedAt = n.CreatedAt, n.ModifiedAt
	s.dirty = false
}

// checkGone terminates the session when the record no longer exists.
func (s *Session) checkGone(err error) error {
	if errors.Is(err, core.ErrNotFound) {
		s.logger.Warn("note vanished, closing editor", "id", s.id)
		s.terminate(s.Result())
	}
	return err
}

func (s *Session) terminate(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateTerminated
	s.result = r
}

func (s *Session) warn(op string, err error) {
	s.logger.Warn(op+" failed", "id", s.id, "error", err)
	s.opts.report(fmt.Errorf("%s %s: %w", op, s.id, err))
}
