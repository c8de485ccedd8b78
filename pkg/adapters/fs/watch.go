package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/notepad/pkg/core"
)

// Watch streams changes to note files matching scope (relative to the store
// root, e.g. core.ScopeNotes). The channel is closed when ctx is done.
//
// Atomic writes surface as CREATE on the final name, so a known ID is reported
// as MODIFY instead.
func (r *Repository) Watch(ctx context.Context, scope string) (<-chan core.Event, error) {
	if !doublestar.ValidatePattern(scope) {
		return nil, fmt.Errorf("invalid watch scope %q", scope)
	}
	if err := os.MkdirAll(r.notesDir(), 0755); err != nil && !r.config.ReadOnly {
		return nil, fmt.Errorf("failed to prepare notes directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(r.notesDir()); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", r.notesDir(), err)
	}

	known := make(map[string]bool)
	if entries, err := os.ReadDir(r.notesDir()); err == nil {
		for _, e := range entries {
			if id, ok := idFromName(e.Name()); ok {
				known[id] = true
			}
		}
	}

	events := make(chan core.Event, 100)
	r.setWatching(1)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(events)
		defer r.setWatching(-1)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				e, ok := r.translate(ev, scope, known)
				if !ok {
					continue
				}
				r.logger.Debug("note changed", "event", e.String())
				select {
				case events <- e:
				case <-ctx.Done():
					return nil
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				r.logger.Error("watcher error", "error", err)
				r.handleError(err)
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		r.logger.Error("watcher panicked", "error", err)
		r.handleError(err)
	}))

	return events, nil
}

func (r *Repository) translate(ev fsnotify.Event, scope string, known map[string]bool) (core.Event, bool) {
	name := filepath.Base(ev.Name)
	id, ok := idFromName(name)
	if !ok {
		return core.Event{}, false
	}
	rel := NotesDir + "/" + name
	if match, _ := doublestar.Match(scope, rel); !match {
		return core.Event{}, false
	}

	switch {
	case ev.Has(fsnotify.Create):
		t := core.EventCreate
		if known[id] {
			t = core.EventModify
		}
		known[id] = true
		return core.NewEvent(t, id), true
	case ev.Has(fsnotify.Write):
		known[id] = true
		return core.NewEvent(core.EventModify, id), true
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		delete(known, id)
		r.cache.Delete(id)
		return core.NewEvent(core.EventDelete, id), true
	}
	return core.Event{}, false
}

func (r *Repository) setWatching(delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers += delta
}
