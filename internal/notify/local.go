package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrQueueFull = errors.New("notification queue is full")
var ErrQueueClosed = errors.New("notification queue is closed")

// LocalQueue runs deliveries on in-process goroutines. It is used when no
// broker is configured and as the fallback when publishing fails.
type LocalQueue struct {
	worker *Worker
	jobs   chan Job
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewLocalQueue(worker *Worker, size, workers int, logger *slog.Logger) *LocalQueue {
	if size <= 0 {
		size = 256
	}
	if workers <= 0 {
		workers = 2
	}
	q := &LocalQueue{
		worker: worker,
		jobs:   make(chan Job, size),
		logger: logger,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
	return q
}

func (q *LocalQueue) run() {
	defer q.wg.Done()
	for job := range q.jobs {
		// Failures are recorded and logged by the worker.
		_ = q.worker.Deliver(context.Background(), job)
	}
}

func (q *LocalQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		q.logger.Warn("Notification dropped, queue full", "kind", job.Kind, "booking_id", job.BookingID)
		return ErrQueueFull
	}
}

// Close stops accepting jobs and waits for queued ones to finish.
func (q *LocalQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}
