package core

import (
	"context"
	"iter"
	"sync/atomic"
)

// Repository defines the contract for storing and retrieving notes.
// Adhering to this interface allows the editors and the live query to be
// independent of the underlying storage mechanism (filesystem, SQLite, ...).
//
// Implementations must serialize writes per record.
type Repository interface {
	// Create persists a new record and returns its store-assigned ID.
	Create(ctx context.Context, f Fields) (string, error)

	// Get retrieves a note by its ID. Missing records yield ErrNotFound.
	Get(ctx context.Context, id string) (Note, error)

	// Update applies a partial update. Missing records yield ErrNotFound.
	Update(ctx context.Context, id string, p Patch) error

	// Delete removes a record. Missing records yield ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Query returns a handle over the notes matching q.
	// The caller owns the handle and must release it exactly once.
	Query(ctx context.Context, q Query) (ResultHandle, error)

	// Initialize ensures the underlying storage is ready (directories, schema).
	Initialize(ctx context.Context) error
}

// Watchable is implemented by repositories that publish change events.
type Watchable interface {
	// Watch streams change events for notes within scope (a glob such as ScopeNotes).
	// The channel is closed when ctx is done.
	Watch(ctx context.Context, scope string) (<-chan Event, error)
}

// ResultHandle is a single-owner view over a query result.
type ResultHandle interface {
	// All iterates the rows in query order. It can be called repeatedly.
	All() iter.Seq[Note]
	// Len returns the number of rows.
	Len() int
	// Release frees the handle. A second call returns ErrReleased.
	Release() error
}

// Snapshot is a ResultHandle over rows materialized at query time.
type Snapshot struct {
	notes     []Note
	released  atomic.Bool
	onRelease func()
}

// NewSnapshot wraps notes. onRelease, if set, runs once on the first Release.
func NewSnapshot(notes []Note, onRelease func()) *Snapshot {
	return &Snapshot{notes: notes, onRelease: onRelease}
}

// All yields the rows until the snapshot is released.
func (s *Snapshot) All() iter.Seq[Note] {
	return func(yield func(Note) bool) {
		for _, n := range s.notes {
			if s.released.Load() {
				return
			}
			if !yield(n) {
				return
			}
		}
	}
}

func (s *Snapshot) Len() int {
	return len(s.notes)
}

func (s *Snapshot) Release() error {
	if !s.released.CompareAndSwap(false, true) {
		return ErrReleased
	}
	if s.onRelease != nil {
		s.onRelease()
	}
	return nil
}

// Released reports whether Release was called.
func (s *Snapshot) Released() bool {
	return s.released.Load()
}

var _ ResultHandle = (*Snapshot)(nil)
