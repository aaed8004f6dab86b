// Package queue buffers pedometer samples between the HTTP ingest handler and
// the worker pool.
package queue

import (
	"context"
	"sync"

	"github.com/okian/stride/internal/domain/model"
	"github.com/okian/stride/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Sample is the payload type flowing through the queue.
type Sample = model.StepSample

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a sample to the queue.
	// Returns ErrFull or ErrClosed when the sample was not enqueued.
	Enqueue(ctx context.Context, s Sample) error

	// Dequeue returns a channel that receives samples as they become available.
	// The channel is closed when the queue is closed and drained or ctx ends.
	Dequeue(ctx context.Context) <-chan Sample

	// Len returns the current number of queued samples.
	Len() int

	// Cap returns the configured capacity.
	Cap() int

	// Close stops accepting samples. Already queued samples stay readable.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	samples  chan Sample
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.samples = make(chan Sample, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a sample to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, s Sample) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejected("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueRejected("context_cancelled")
		return err
	}

	select {
	case q.samples <- s:
		metrics.UpdateQueueSize(len(q.samples))
		return nil
	default:
		metrics.RecordQueueRejected("full")
		return ErrFull
	}
}

// Dequeue returns a channel that will receive samples as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Sample {
	out := make(chan Sample)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case s, ok := <-q.samples:
				if !ok {
					return
				}
				metrics.UpdateQueueSize(len(q.samples))
				select {
				case out <- s:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued samples.
func (q *InMemoryQueue) Len() int { return len(q.samples) }

// Cap returns the queue capacity.
func (q *InMemoryQueue) Cap() int { return q.capacity }

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.samples)
	q.closed = true
	return nil
}
