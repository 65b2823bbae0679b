// Package queue provides the unbounded FIFO that hands console input from the
// input producer to the client loop.
//
// A Queue has exactly one sending side and one receiving side. The sender
// pushes items and eventually calls Close; the receiver pops items and may
// call Drop when it no longer listens. Receiving never loses or reorders
// items, and an empty queue is reported differently from a closed one.
package queue

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrEmpty is returned by TryPop when no item is pending.
	ErrEmpty = errors.New("queue: empty")

	// ErrClosed is returned to the receiver once the sender has closed the
	// queue and every pending item was consumed, and to the sender once the
	// receiver has dropped the queue.
	ErrClosed = errors.New("queue: closed")
)

// Queue is an unbounded single-producer/single-consumer queue of strings.
type Queue struct {
	mu      sync.Mutex
	items   []string
	closed  bool
	dropped bool
	ready   chan struct{}
}

// New creates an empty Queue.
func New() *Queue {
	return &Queue{
		ready: make(chan struct{}, 1),
	}
}

// Push appends item to the tail of the queue.
// It fails with ErrClosed if the receiver has dropped the queue or the
// sender already closed it.
func (q *Queue) Push(item string) error {
	q.mu.Lock()
	if q.dropped || q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.items = append(q.items, item)
	q.mu.Unlock()

	q.notify()
	return nil
}

// Close marks the sending side as finished. Items pushed before Close are
// still delivered.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.notify()
}

// Drop marks the receiving side as gone. Subsequent pushes fail and pending
// items are discarded.
func (q *Queue) Drop() {
	q.mu.Lock()
	q.dropped = true
	q.items = nil
	q.mu.Unlock()
}

// TryPop removes and returns the head item without blocking.
func (q *Queue) TryPop() (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) > 0 {
		item := q.items[0]
		q.items[0] = ""
		q.items = q.items[1:]
		return item, nil
	}
	if q.closed {
		return "", ErrClosed
	}
	return "", ErrEmpty
}

// Pop removes and returns the head item, waiting until one is available,
// the queue is closed, or ctx is done.
func (q *Queue) Pop(ctx context.Context) (string, error) {
	for {
		item, err := q.TryPop()
		if !errors.Is(err, ErrEmpty) {
			return item, err
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-q.ready:
		}
	}
}

// Len returns the number of pending items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) notify() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
