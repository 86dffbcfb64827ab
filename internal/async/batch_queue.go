package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-renamer/internal/common"
	"github.com/joseph-ayodele/invoice-renamer/internal/rename"
)

// BatchQueue owns exactly one worker goroutine. Batches, and the documents in
// them, run strictly one at a time.
type BatchQueue struct {
	runner Runner
	logger *slog.Logger
	ctx    context.Context

	events  chan<- rename.Event
	ch      chan Batch
	results chan Result
	wg      sync.WaitGroup
	once    sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*BatchQueue)

// WithQueueSize bounds the number of batches waiting for the worker.
func WithQueueSize(n int) Option {
	return func(q *BatchQueue) {
		if n > 0 {
			q.ch = make(chan Batch, n)
		}
	}
}

// WithEvents forwards per-document progress of every batch to ch.
func WithEvents(ch chan<- rename.Event) Option {
	return func(q *BatchQueue) { q.events = ch }
}

// NewBatchQueue starts the worker. Cancelling ctx makes the running batch stop
// before its next document; queued batches are then skipped.
func NewBatchQueue(ctx context.Context, runner Runner, logger *slog.Logger, opts ...Option) *BatchQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &BatchQueue{
		runner:  runner,
		logger:  logger,
		ctx:     ctx,
		ch:      make(chan Batch, 16),
		results: make(chan Result, 16),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

// Results delivers one Result per batch and closes after Shutdown.
func (q *BatchQueue) Results() <-chan Result { return q.results }

func (q *BatchQueue) start() {
	q.once.Do(func() {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			defer close(q.results)
			q.logger.Info("async.worker.started")

			for b := range q.ch {
				if q.ctx.Err() != nil {
					q.logger.Warn("async.batch.skipped", "batch_id", b.ID, "reason", "canceled")
					q.results <- Result{Batch: b, Err: q.ctx.Err()}
					continue
				}
				start := time.Now()
				ctx := common.WithRunID(q.ctx, b.ID)
				sum, err := q.runner.Run(ctx, b.Request, q.events)
				if err != nil {
					q.logger.Error("async.batch.failed", "batch_id", b.ID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
				} else {
					q.logger.Info("async.batch.ok",
						"batch_id", b.ID,
						"total", sum.Total,
						"succeeded", sum.Succeeded,
						"elapsed_ms", time.Since(start).Milliseconds(),
					)
				}
				q.results <- Result{Batch: b, Summary: sum, Err: err}
			}

			q.logger.Info("async.worker.stopped")
		}()
	})
}

// Enqueue hands b to the worker, blocking while the queue is full.
func (q *BatchQueue) Enqueue(ctx context.Context, b Batch) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.SubmittedAt.IsZero() {
		b.SubmittedAt = time.Now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("async.enqueue.closed", "batch_id", b.ID)
		return ErrQueueClosed
	}
	select {
	case q.ch <- b:
		q.logger.Info("async.enqueue.ok", "batch_id", b.ID, "source", b.Request.Source, "files", len(b.Request.Only))
	default:
		q.logger.Warn("async.enqueue.backpressure", "batch_id", b.ID)
		select {
		case q.ch <- b:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Shutdown stops accepting batches and waits for the worker to drain.
func (q *BatchQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("async.shutdown.interrupted")
	case <-done:
		q.logger.Info("async.shutdown.ok")
	}
}
