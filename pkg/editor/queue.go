package editor

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/notepad/pkg/core"
)

// writeQueue runs store calls one at a time, in submission order.
// Jobs run on a context detached from the submitter so that a caller going
// away never drops a pending write.
type writeQueue struct {
	ctx     context.Context
	onPanic func(error)

	mu   sync.Mutex
	tail chan struct{} // closed when the last submitted job finishes
}

func newWriteQueue(onPanic func(error)) *writeQueue {
	return &writeQueue{
		ctx:     context.WithoutCancel(context.Background()),
		onPanic: onPanic,
	}
}

// submit schedules job after every previously submitted job and returns a
// channel closed once it has run.
func (q *writeQueue) submit(job func(ctx context.Context)) <-chan struct{} {
	q.mu.Lock()
	prev := q.tail
	done := make(chan struct{})
	q.tail = done
	q.mu.Unlock()

	lifecycle.Go(q.ctx, func(ctx context.Context) error {
		defer close(done)
		if prev != nil {
			<-prev
		}
		job(ctx)
		return nil
	}, lifecycle.WithErrorHandler(q.onPanic))
	return done
}

// idle returns a channel closed once every job submitted so far has run.
func (q *writeQueue) idle() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.tail == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return q.tail
}

// await submits job and blocks until it ran or ctx is done. The job still
// runs to completion when ctx ends first.
func (q *writeQueue) await(ctx context.Context, job func(ctx context.Context) error) error {
	var err error
	done := q.submit(func(ctx context.Context) {
		err = job(ctx)
	})
	select {
	case <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retryUnavailable runs fn and retries it once when the store was unreachable.
func retryUnavailable(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if errors.Is(err, core.ErrPersistenceUnavailable) && ctx.Err() == nil {
		err = fn(ctx)
	}
	return err
}
