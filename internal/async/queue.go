// Package async runs rename batches on one background worker so the caller's
// goroutine stays free to render progress.
package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/invoice-renamer/internal/rename"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("batch queue is shut down")

// Batch is one rename run waiting for the worker.
type Batch struct {
	ID          string
	Request     rename.Request
	SubmittedAt time.Time
}

// Result is what the worker reports for a batch.
type Result struct {
	Batch   Batch
	Summary rename.Summary
	Err     error
}

// Runner executes a batch; *rename.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, req rename.Request, events chan<- rename.Event) (rename.Summary, error)
}

type Queue interface {
	Enqueue(ctx context.Context, b Batch) error
	Shutdown(ctx context.Context)
}

var _ Queue = (*BatchQueue)(nil)
