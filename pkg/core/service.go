package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aretw0/lifecycle"
)

const defaultEventBuffer = 100

// Service is the store client used by the editors and the live query.
// It validates input, maps adapter failures onto the error taxonomy
// (ErrNotFound / ErrPersistenceUnavailable) and decouples watch streams.
type Service struct {
	repo            Repository
	logger          *slog.Logger
	eventBufferSize int
	mu              sync.RWMutex

	brokers  atomic.Int64
	failures atomic.Int64
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger used for store diagnostics.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEventBuffer sets the size of the watch broker buffer. Zero means default (100).
func WithEventBuffer(size int) ServiceOption {
	return func(s *Service) {
		if size > 0 {
			s.eventBufferSize = size
		}
	}
}

// NewService creates a new Service.
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:            repo,
		logger:          slog.New(slog.DiscardHandler),
		eventBufferSize: defaultEventBuffer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repository returns the wrapped repository.
func (s *Service) Repository() Repository {
	return s.repo
}

// Create persists an empty or pre-filled record and returns its ID.
func (s *Service) Create(ctx context.Context, f Fields) (string, error) {
	id, err := s.repo.Create(ctx, f)
	if err != nil {
		s.logger.Warn("create failed", "error", err)
		return "", s.fail("create note", err)
	}
	s.logger.Debug("note created", "id", id)
	return id, nil
}

// Get retrieves a note.
func (s *Service) Get(ctx context.Context, id string) (Note, error) {
	if id == "" {
		return Note{}, errors.New("note ID cannot be empty")
	}
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return Note{}, s.fail("read note", err)
	}
	return n, nil
}

// Update applies a partial update to a note.
func (s *Service) Update(ctx context.Context, id string, p Patch) error {
	if id == "" {
		return errors.New("note ID cannot be empty")
	}
	if err := s.repo.Update(ctx, id, p); err != nil {
		s.logger.Warn("update failed", "id", id, "error", err)
		return s.fail("update note", err)
	}
	s.logger.Debug("note updated", "id", id)
	return nil
}

// Delete removes a note.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("note ID cannot be empty")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail("delete note", err)
	}
	s.logger.Debug("note deleted", "id", id)
	return nil
}

// Query opens a result handle. The caller owns it.
func (s *Service) Query(ctx context.Context, q Query) (ResultHandle, error) {
	h, err := s.repo.Query(ctx, q)
	if err != nil {
		return nil, s.fail("query notes", err)
	}
	return h, nil
}

// Watch observes changes in the repository if supported.
// Events are relayed through a buffer so a slow consumer does not stall the producer.
func (s *Service) Watch(ctx context.Context, scope string) (<-chan Event, error) {
	w, ok := s.repo.(Watchable)
	if !ok {
		return nil, fmt.Errorf("%w: repository does not support watching", ErrPersistenceUnavailable)
	}
	upstream, err := w.Watch(ctx, scope)
	if err != nil {
		return nil, s.fail("watch notes", err)
	}

	s.mu.RLock()
	size := s.eventBufferSize
	s.mu.RUnlock()

	out := make(chan Event, size)
	s.brokers.Add(1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		defer s.brokers.Add(-1)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-upstream:
				if !ok {
					return nil
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("watch broker panic", "error", err)
	}))
	return out, nil
}

// fail maps err onto the error taxonomy and counts it as a store failure,
// unless the record was simply missing.
func (s *Service) fail(op string, err error) error {
	if !errors.Is(err, ErrNotFound) {
		s.failures.Add(1)
	}
	return Unavailable(op, err)
}
