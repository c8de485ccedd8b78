package notepad

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/aretw0/lifecycle"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/notepad/internal/platform"
	lifecycleadapter "github.com/aretw0/notepad/pkg/adapters/lifecycle"
	"github.com/aretw0/notepad/pkg/core"
	"github.com/aretw0/notepad/pkg/editor"
	"github.com/aretw0/notepad/pkg/livequery"
	"github.com/aretw0/notepad/pkg/notify"
	"github.com/aretw0/notepad/pkg/prefs"
)

// App wires the store, the live list, the editors and the alert dispatcher.
type App struct {
	service    *core.Service
	list       *livequery.Synchronizer
	dispatcher *notify.Dispatcher
	editorOpts editor.Options
	logger     *slog.Logger
	report     func(error)

	prefsMu   sync.Mutex
	prefs     prefs.Preferences
	prefsPath string

	closeOnce sync.Once
	closeErr  error
}

// Open opens the store rooted at root and binds the note list, restoring
// the saved filter from the preferences file.
func Open(ctx context.Context, root string, opts ...Option) (*App, error) {
	c := defaultConfig()
	for _, opt := range opts {
		opt(c)
	}

	// 1. Store
	service, err := platform.New(ctx, root, c.storeOptions()...)
	if err != nil {
		return nil, err
	}

	a := &App{
		service:    service,
		dispatcher: notify.NewDispatcher(c.presenter, notify.WithLogger(c.logger)),
		logger:     c.logger,
		report:     c.errorHandler,
		editorOpts: editor.Options{
			Logger:       c.logger,
			Clock:        c.clock,
			ErrorHandler: c.errorHandler,
			CloseTimeout: c.closeTimeout,
		},
	}

	// 2. Preferences
	if c.prefs != nil {
		a.prefs = *c.prefs
	} else {
		a.prefsPath = prefs.Path(filepath.Join(root, c.systemDir))
		if a.prefs, err = prefs.Load(a.prefsPath); err != nil {
			a.logger.Warn("ignoring unreadable preferences", "path", a.prefsPath, "error", err)
		}
	}

	// 3. Live list
	a.list, err = livequery.Open(ctx, service, livequery.Options{
		Logger:       c.logger,
		ErrorHandler: c.errorHandler,
		Filter:       a.prefs.Filter,
	})
	if err != nil {
		a.closeRepository()
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}

	return a, nil
}

// Service returns the store client.
func (a *App) Service() *core.Service {
	return a.service
}

// OpenEditor starts an edit session.
func (a *App) OpenEditor(ctx context.Context, req editor.Request) (*editor.Session, error) {
	return editor.Open(ctx, a.service, req, a.editorOpts)
}

// OpenTitleEditor starts a title-only editor on note id.
func (a *App) OpenTitleEditor(ctx context.Context, id string) (*editor.TitleEditor, error) {
	return editor.OpenTitle(ctx, a.service, id, a.editorOpts)
}

// OpenLink opens the edit session a deep link points to.
func (a *App) OpenLink(ctx context.Context, raw string) (*editor.Session, error) {
	l, err := editor.ParseLink(raw)
	if err != nil {
		return nil, err
	}
	return l.Open(ctx, a.service, a.editorOpts)
}

// SetFilter filters the note list and remembers the filter.
func (a *App) SetFilter(ctx context.Context, text string) error {
	if err := a.list.SetFilter(ctx, text); err != nil {
		return err
	}
	return a.updatePrefs(func(p *prefs.Preferences) {
		p.Filter = a.list.Filter()
	})
}

// Filter returns the current filter text.
func (a *App) Filter() string {
	return a.list.Filter()
}

// CurrentResults iterates the note list in display order.
func (a *App) CurrentResults() iter.Seq[core.Note] {
	return a.list.Results()
}

// Preferences returns the current preferences.
func (a *App) Preferences() prefs.Preferences {
	a.prefsMu.Lock()
	defer a.prefsMu.Unlock()
	return a.prefs
}

// SetBackground changes the list background color.
func (a *App) SetBackground(color string) error {
	if err := (prefs.Preferences{Background: color}).Validate(); err != nil {
		return err
	}
	return a.updatePrefs(func(p *prefs.Preferences) {
		p.Background = color
	})
}

func (a *App) updatePrefs(fn func(*prefs.Preferences)) error {
	a.prefsMu.Lock()
	defer a.prefsMu.Unlock()
	fn(&a.prefs)
	if a.prefsPath == "" {
		return nil
	}
	return prefs.Save(a.prefsPath, a.prefs)
}

// OnChangeNotification handles one change event: the list is refreshed and,
// unless the note is gone, an alert linking to it is raised.
func (a *App) OnChangeNotification(ctx context.Context, e core.Event) error {
	refreshErr := a.list.Refresh(ctx)
	return errors.Join(refreshErr, a.alert(ctx, e))
}

func (a *App) alert(ctx context.Context, e core.Event) error {
	if e.Type == core.EventDelete {
		return nil
	}
	n, err := a.service.Get(ctx, e.ID)
	if errors.Is(err, core.ErrNotFound) {
		a.logger.Debug("no alert for vanished note", "id", e.ID)
		return nil
	}
	if err != nil {
		return err
	}
	_, err = a.dispatcher.Dispatch(ctx, notify.ChangeEvent{NoteID: n.ID, Title: n.Title, Snippet: n.Body})
	return err
}

// Run watches the store until ctx is done, refreshing the list and raising
// alerts for every change.
func (a *App) Run(ctx context.Context) error {
	events, err := a.service.Watch(ctx, core.ScopeNotes)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	toList := make(chan core.Event, 16)
	toAlerts := make(chan core.Event, 16)

	g.Go(func() error {
		defer close(toList)
		defer close(toAlerts)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				// A refresh already pending covers this event too.
				select {
				case toList <- e:
				default:
				}
				select {
				case toAlerts <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})

	g.Go(func() error {
		return a.list.Run(ctx, toList)
	})

	g.Go(func() error {
		for e := range toAlerts {
			if err := a.alert(ctx, e); err != nil {
				a.logger.Warn("alert failed", "event", e.String(), "error", err)
				if a.report != nil {
					a.report(err)
				}
			}
		}
		return nil
	})

	return g.Wait()
}

// Changes exposes the store's create and modify events as a lifecycle.Source,
// for hosts that supervise the app with their own event loop.
func (a *App) Changes(ctx context.Context) (lifecycle.Source, error) {
	events, err := a.service.Watch(ctx, core.ScopeNotes)
	if err != nil {
		return nil, err
	}
	return lifecycleadapter.NewSource(events, core.EventCreate, core.EventModify), nil
}

// Close releases the note list and closes the store. It is idempotent.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = errors.Join(a.list.Close(), a.closeRepository())
	})
	return a.closeErr
}

func (a *App) closeRepository() error {
	if c, ok := a.service.Repository().(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// AppState exposes internal state for observability.
type AppState struct {
	Service   any `json:"service"`
	LiveQuery any `json:"live_query"`
	Store     any `json:"store,omitempty"`
}

// State returns a snapshot of the app components.
func (a *App) State() any {
	st := AppState{
		Service:   a.service.State(),
		LiveQuery: a.list.State(),
	}
	if s, ok := a.service.Repository().(interface{ State() any }); ok {
		st.Store = s.State()
	}
	return st
}
