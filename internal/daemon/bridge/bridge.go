// Package bridge provides an unbounded FIFO channel that hands values from
// blocking producer goroutines to a single consumer goroutine.
//
// Send never blocks and only fails once the receiving end has been closed,
// which lets a producer treat a failed send as its signal to stop.
package bridge

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/grovetools/br0wse/errors"
)

// ErrEndOfStream is returned by Recv once the sender is closed and every
// pending value has been received.
var ErrEndOfStream = stderrors.New("bridge: end of stream")

type queue[T any] struct {
	mu       sync.Mutex
	items    []T
	closed   bool // sender side closed
	dropped  bool // receiver side closed
	ready    chan struct{}
	gone     chan struct{}
	goneOnce sync.Once
}

// Sender is the producing end of a bridge. It is safe for concurrent use.
type Sender[T any] struct {
	q *queue[T]
}

// Receiver is the consuming end of a bridge. It must have a single consumer.
type Receiver[T any] struct {
	q *queue[T]
}

// New creates a connected Sender/Receiver pair.
func New[T any]() (*Sender[T], *Receiver[T]) {
	q := &queue[T]{
		ready: make(chan struct{}, 1),
		gone:  make(chan struct{}),
	}
	return &Sender[T]{q: q}, &Receiver[T]{q: q}
}

// Send enqueues v without blocking. It fails with ErrCodeBridgeClosed if the
// receiver has been closed or the sender was already closed.
func (s *Sender[T]) Send(v T) error {
	q := s.q
	q.mu.Lock()
	if q.dropped {
		q.mu.Unlock()
		return errors.BridgeClosed()
	}
	if q.closed {
		q.mu.Unlock()
		return errors.New(errors.ErrCodeBridgeClosed, "bridge sender is closed")
	}
	q.items = append(q.items, v)
	q.mu.Unlock()
	q.wake()
	return nil
}

// Close marks the producing side as finished. The receiver drains what is
// pending and then sees ErrEndOfStream. Close is idempotent.
func (s *Sender[T]) Close() {
	q := s.q
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wake()
}

// ReceiverGone reports whether the receiving end has been closed.
func (s *Sender[T]) ReceiverGone() bool {
	s.q.mu.Lock()
	defer s.q.mu.Unlock()
	return s.q.dropped
}

// Done returns a channel that is closed when the receiving end is closed.
func (s *Sender[T]) Done() <-chan struct{} {
	return s.q.gone
}

// Recv blocks until a value is available, the stream ends, or ctx is done.
// Values are returned in the order they were sent.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	q := r.q
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			q.items[0] = zero
			q.items = q.items[1:]
			q.mu.Unlock()
			return v, nil
		}
		if q.closed || q.dropped {
			q.mu.Unlock()
			return zero, ErrEndOfStream
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Len returns the number of values waiting to be received.
func (r *Receiver[T]) Len() int {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	return len(r.q.items)
}

// Close drops the receiving end. Pending values are discarded and every
// later Send fails.
func (r *Receiver[T]) Close() {
	q := r.q
	q.mu.Lock()
	q.dropped = true
	q.items = nil
	q.mu.Unlock()
	q.goneOnce.Do(func() { close(q.gone) })
	q.wake()
}

func (q *queue[T]) wake() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
