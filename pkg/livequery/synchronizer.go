// Package livequery keeps a displayed note list consistent with the user's
// filter text and with change notifications from the store.
package livequery

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/aretw0/notepad/pkg/core"
)

// ErrClosed is returned by refreshes issued after Close.
var ErrClosed = errors.New("live query closed")

// Source runs queries. *core.Service satisfies it.
type Source interface {
	Query(ctx context.Context, q core.Query) (core.ResultHandle, error)
}

// Options configures a Synchronizer.
type Options struct {
	Logger *slog.Logger
	// ErrorHandler receives refresh failures. The previous results stay visible.
	ErrorHandler func(error)
	// Filter is the initial filter text.
	Filter string
}

// Synchronizer owns exactly one active result handle, rebinding it whenever
// the filter changes or the store reports a change.
//
// Refreshes are serialized. Each one carries the sequence number it was
// issued with; a refresh overtaken by a later one before it queried is
// skipped, so the bound result always answers the most recent filter.
type Synchronizer struct {
	source Source
	logger *slog.Logger
	report func(error)

	refreshMu sync.Mutex

	filterMu sync.Mutex
	filter   string
	issued   uint64

	active    atomic.Pointer[binding]
	closed    atomic.Bool
	refreshes atomic.Int64
}

// Open creates a synchronizer and binds the initial result.
func Open(ctx context.Context, source Source, opts Options) (*Synchronizer, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	s := &Synchronizer{
		source: source,
		logger: opts.Logger,
		report: opts.ErrorHandler,
		filter: strings.TrimSpace(opts.Filter),
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Filter returns the current filter text.
func (s *Synchronizer) Filter() string {
	s.filterMu.Lock()
	defer s.filterMu.Unlock()
	return s.filter
}

// SetFilter records the trimmed filter text and refreshes.
func (s *Synchronizer) SetFilter(ctx context.Context, text string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	s.filterMu.Lock()
	s.filter = strings.TrimSpace(text)
	s.filterMu.Unlock()
	return s.Refresh(ctx)
}

// Refresh re-runs the query for the current filter and rebinds the result.
// On failure the previous result stays bound.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}

	// 1. Issue: the filter and the sequence number are taken together.
	s.filterMu.Lock()
	s.issued++
	seq, filter := s.issued, s.filter
	s.filterMu.Unlock()

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if s.closed.Load() {
		return ErrClosed
	}
	if seq < s.latestIssued() {
		s.logger.Debug("refresh superseded", "seq", seq)
		return nil
	}

	// 2. Query.
	h, err := s.source.Query(ctx, core.Query{
		Predicate: core.Contains(filter),
		Order:     core.OrderModifiedDesc,
	})
	if err != nil {
		err = fmt.Errorf("refresh %q: %w", filter, err)
		s.logger.Warn("refresh failed, keeping previous results", "filter", filter, "error", err)
		if s.report != nil {
			s.report(err)
		}
		return err
	}

	// 3. Bind, then retire the old binding.
	b := newBinding(h, filter, seq, s.freed)
	if cur := s.active.Load(); cur != nil && cur.seq > seq {
		b.release()
		return nil
	}
	if old := s.active.Swap(b); old != nil {
		old.release()
	}
	s.refreshes.Add(1)
	s.logger.Debug("results rebound", "filter", filter, "rows", h.Len(), "seq", seq)
	return nil
}

func (s *Synchronizer) latestIssued() uint64 {
	s.filterMu.Lock()
	defer s.filterMu.Unlock()
	return s.issued
}

func (s *Synchronizer) freed(err error) {
	if err != nil {
		s.logger.Error("result handle release failed", "error", err)
	}
}

// pin returns the active binding with a reference held, or nil.
func (s *Synchronizer) pin() *binding {
	for {
		b := s.active.Load()
		if b == nil {
			return nil
		}
		if b.acquire() {
			return b
		}
		// retired between Load and acquire; the pointer has moved on
	}
}

// Results iterates the bound result in order. The view is pinned for the
// duration of one iteration, so a concurrent rebind never frees rows that
// are still being read.
func (s *Synchronizer) Results() iter.Seq[core.Note] {
	return func(yield func(core.Note) bool) {
		b := s.pin()
		if b == nil {
			return
		}
		defer b.release()
		for n := range b.handle.All() {
			if !yield(n) {
				return
			}
		}
	}
}

// Len returns the number of bound rows.
func (s *Synchronizer) Len() int {
	b := s.pin()
	if b == nil {
		return 0
	}
	defer b.release()
	return b.handle.Len()
}

// Run refreshes on every change event until ctx is done, events is closed
// or the synchronizer is closed. Bursts of events cause a single refresh.
func (s *Synchronizer) Run(ctx context.Context, events <-chan core.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			s.logger.Debug("change notification", "event", e.String())
			if !drain(events) {
				return nil
			}
			if err := s.Refresh(ctx); errors.Is(err, ErrClosed) {
				return nil
			}
		}
	}
}

// drain discards queued events. It reports false if the channel was closed.
func drain(events <-chan core.Event) bool {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return false
			}
		default:
			return true
		}
	}
}

// Close releases the active result. Later refreshes return ErrClosed.
func (s *Synchronizer) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	if old := s.active.Swap(nil); old != nil {
		old.release()
	}
	return nil
}
