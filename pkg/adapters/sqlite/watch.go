package sqlite

import (
	"context"
	"fmt"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/notepad/pkg/core"
)

// subscriberBuffer is the per-watcher event buffer. Events beyond it are
// dropped for that watcher; consumers re-query on the next event anyway.
const subscriberBuffer = 64

type subscriber struct {
	scope  string
	events chan core.Event
}

// Watch streams changes committed through this repository that fall within
// scope. IDs are matched as "notes/<id>", so core.ScopeNotes covers all rows.
// Changes made by other processes sharing the database file are not seen.
func (r *Repository) Watch(ctx context.Context, scope string) (<-chan core.Event, error) {
	if !doublestar.ValidatePattern(scope) {
		return nil, fmt.Errorf("invalid watch scope %q", scope)
	}

	sub := &subscriber{scope: scope, events: make(chan core.Event, subscriberBuffer)}

	r.mu.Lock()
	key := r.nextSub
	r.nextSub++
	r.subscribers[key] = sub
	r.mu.Unlock()

	lifecycle.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.subscribers[key]; ok {
			delete(r.subscribers, key)
			close(sub.events)
		}
		return nil
	})

	return sub.events, nil
}

// publish fans an event out to matching subscribers without blocking.
func (r *Repository) publish(e core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.subscribers {
		if ok, _ := doublestar.Match(sub.scope, "notes/"+e.ID); !ok {
			continue
		}
		select {
		case sub.events <- e:
		default:
			r.logger.Warn("dropping change event, watcher is slow", "event", e.String())
		}
	}
}

func (r *Repository) closeSubscribers() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, sub := range r.subscribers {
		delete(r.subscribers, key)
		close(sub.events)
	}
}

func (r *Repository) watchers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribers)
}
