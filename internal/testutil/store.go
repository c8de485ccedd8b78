// Package testutil provides an in-memory store with failure injection and a
// repository contract suite shared by the adapter tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/notepad/pkg/core"
)

// Op names a store operation for failure injection.
type Op string

const (
	OpCreate Op = "create"
	OpGet    Op = "get"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpQuery  Op = "query"
)

// Store implements core.Repository and core.Watchable in memory.
// It counts open result handles so tests can assert handle lifetimes.
type Store struct {
	mu       sync.Mutex
	notes    map[string]core.Note
	nextID   int
	clock    func() time.Time
	failures map[Op]int
	calls    []Op
	subs     []chan core.Event

	queryHook   func(core.Query)
	openHandles atomic.Int64
	released    atomic.Int64
}

// NewStore creates an empty in-memory store using clock for timestamps.
// A nil clock uses time.Now.
func NewStore(clock func() time.Time) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		notes:    make(map[string]core.Note),
		clock:    clock,
		failures: make(map[Op]int),
	}
}

// FailNext makes the next n calls of op fail with ErrPersistenceUnavailable.
func (s *Store) FailNext(op Op, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] += n
}

// SetQueryHook installs a callback run at the start of every Query (outside the lock).
func (s *Store) SetQueryHook(fn func(core.Query)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryHook = fn
}

// Seed inserts a note as-is and returns its ID. An empty ID is assigned.
func (s *Store) Seed(n core.Note) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		s.nextID++
		n.ID = fmt.Sprintf("note-%d", s.nextID)
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.clock()
	}
	if n.ModifiedAt.IsZero() {
		n.ModifiedAt = n.CreatedAt
	}
	s.notes[n.ID] = n
	return n.ID
}

// Has reports whether id is present.
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.notes[id]
	return ok
}

// Len returns the number of stored notes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}

// Calls returns the operations issued so far, in order.
func (s *Store) Calls() []Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Op(nil), s.calls...)
}

// CountCalls returns how many times op was issued.
func (s *Store) CountCalls(op Op) int {
	n := 0
	for _, c := range s.Calls() {
		if c == op {
			n++
		}
	}
	return n
}

// OpenHandles returns the number of query handles not yet released.
func (s *Store) OpenHandles() int {
	return int(s.openHandles.Load())
}

// ReleasedHandles returns the number of handles released so far.
func (s *Store) ReleasedHandles() int {
	return int(s.released.Load())
}

// Emit publishes an event to every watcher, as an external writer would.
// Events are dropped for watchers whose buffer is full.
func (s *Store) Emit(e core.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// begin records the call and consumes an injected failure.
// Must be called with s.mu held.
func (s *Store) begin(op Op) error {
	s.calls = append(s.calls, op)
	if s.failures[op] > 0 {
		s.failures[op]--
		return fmt.Errorf("%w: injected %s failure", core.ErrPersistenceUnavailable, op)
	}
	return nil
}

func (s *Store) Initialize(ctx context.Context) error { return nil }

func (s *Store) Create(ctx context.Context, f core.Fields) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpCreate); err != nil {
		return "", err
	}
	s.nextID++
	now := s.clock()
	n := core.Note{
		ID:         fmt.Sprintf("note-%d", s.nextID),
		Title:      f.Title,
		Body:       f.Body,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	s.notes[n.ID] = n
	return n.ID, nil
}

func (s *Store) Get(ctx context.Context, id string) (core.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpGet); err != nil {
		return core.Note{}, err
	}
	n, ok := s.notes[id]
	if !ok {
		return core.Note{}, core.NotFound(id)
	}
	return n, nil
}

func (s *Store) Update(ctx context.Context, id string, p core.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpUpdate); err != nil {
		return err
	}
	n, ok := s.notes[id]
	if !ok {
		return core.NotFound(id)
	}
	s.notes[id] = p.Apply(n, s.clock())
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpDelete); err != nil {
		return err
	}
	if _, ok := s.notes[id]; !ok {
		return core.NotFound(id)
	}
	delete(s.notes, id)
	return nil
}

func (s *Store) Query(ctx context.Context, q core.Query) (core.ResultHandle, error) {
	s.mu.Lock()
	hook := s.queryHook
	s.mu.Unlock()
	if hook != nil {
		hook(q)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(OpQuery); err != nil {
		return nil, err
	}
	var rows []core.Note
	for _, n := range s.notes {
		if q.Predicate.Match(n) {
			rows = append(rows, n)
		}
	}
	core.SortNotes(rows, q.Order)
	s.openHandles.Add(1)
	return core.NewSnapshot(rows, func() {
		s.openHandles.Add(-1)
		s.released.Add(1)
	}), nil
}

// Watch returns a channel fed by Emit. It is closed when ctx is done.
func (s *Store) Watch(ctx context.Context, scope string) (<-chan core.Event, error) {
	ch := make(chan core.Event, 16)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, c := range s.subs {
			if c == ch {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

var (
	_ core.Repository = (*Store)(nil)
	_ core.Watchable  = (*Store)(nil)
)
