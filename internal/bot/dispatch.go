package bot

import (
	"context"
	"sync"

	"github.com/snowpost/snowpost/internal/telegram"
)

// updateQueue is a thread-safe FIFO of updates for one participant.
//
// Unbounded so a burst of messages never blocks the poller. A channel
// signals availability so the worker can wait without busy-looping and
// still honor context cancellation.
type updateQueue struct {
	mu      sync.Mutex
	updates []telegram.Update
	closed  bool
	signal  chan struct{} // buffered size 1; coalesces wakeups, not events
}

func newUpdateQueue() *updateQueue {
	return &updateQueue{
		signal: make(chan struct{}, 1),
	}
}

// enqueue appends an update. Returns false if the queue is closed.
func (q *updateQueue) enqueue(u telegram.Update) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.updates = append(q.updates, u)

	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// tryDequeue pops the front update without blocking.
func (q *updateQueue) tryDequeue() (telegram.Update, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.updates) == 0 {
		return telegram.Update{}, false
	}

	u := q.updates[0]
	q.updates = q.updates[1:]
	return u, true
}

// wait returns the wakeup channel.
func (q *updateQueue) wait() <-chan struct{} {
	return q.signal
}

func (q *updateQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *updateQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Handler processes one inbound update to completion.
type Handler interface {
	HandleUpdate(ctx context.Context, upd telegram.Update)
}

// Dispatcher fans inbound updates out to one worker per participant.
//
// Ordering guarantee: updates for a single participant are handled in the
// order they were dispatched, each to completion before the next. Across
// participants there is no ordering, and none is needed.
type Dispatcher struct {
	handler Handler

	mu      sync.Mutex
	queues  map[int64]*updateQueue
	closed  bool
	workers sync.WaitGroup
}

// NewDispatcher creates a dispatcher delivering to the given handler.
func NewDispatcher(handler Handler) *Dispatcher {
	return &Dispatcher{
		handler: handler,
		queues:  make(map[int64]*updateQueue),
	}
}

// Dispatch routes an update to its participant's queue, starting the
// participant's worker on first sight. Updates without a sender are dropped.
// Returns false after Close.
func (d *Dispatcher) Dispatch(ctx context.Context, upd telegram.Update) bool {
	if upd.Message == nil || upd.Message.From == nil {
		return true
	}
	participantID := upd.Message.From.ID

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	q, ok := d.queues[participantID]
	if !ok {
		q = newUpdateQueue()
		d.queues[participantID] = q
		d.workers.Add(1)
		go d.runWorker(ctx, q)
	}
	d.mu.Unlock()

	return q.enqueue(upd)
}

// runWorker drains one participant's queue until the context is cancelled
// and the queue is empty, or the queue is closed.
func (d *Dispatcher) runWorker(ctx context.Context, q *updateQueue) {
	defer d.workers.Done()

	for {
		upd, ok := q.tryDequeue()
		if ok {
			d.handler.HandleUpdate(ctx, upd)
			continue
		}

		// Check closed before blocking: close() may have raced with the
		// drain above, and its wakeup signal could already be consumed.
		if q.isClosed() {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-q.wait():
			// Wakeup - loop back to tryDequeue
		}
	}
}

// Close stops accepting updates and waits for all workers to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.queues {
		q.close()
	}
	d.mu.Unlock()

	d.workers.Wait()
}
