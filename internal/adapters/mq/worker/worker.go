// Package worker runs the asynchronous dispatch loop: events pulled off the
// queue are classified and executed, their records finalized, and their
// responses handed to the notifier.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/frontdesk-labs/frontdesk/internal/adapters/collab"
	"github.com/frontdesk-labs/frontdesk/internal/audit"
	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
	"github.com/frontdesk-labs/frontdesk/pkg/logger"
	"github.com/frontdesk-labs/frontdesk/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	defaultDispatchDeadline = 15 * time.Second
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Event abstracts what workers read off the queue.
type Event = model.InboundEvent

// Dispatcher executes one event's intent and returns the result to store.
type Dispatcher interface {
	Dispatch(ctx context.Context, event model.InboundEvent) (model.Result, error)
}

// Recorder finalizes the processing record owned by this worker.
type Recorder interface {
	Begin(ctx context.Context, eventID string) error
	Complete(ctx context.Context, eventID string, result model.Result) error
	Fail(ctx context.Context, eventID string, reason string) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes events until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing events.
type InMemoryWorker struct {
	queue      Queue
	dispatcher Dispatcher
	recorder   Recorder
	notifier   collab.Notifier
	auditor    *audit.Recorder
	name       string
	deadline   time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, d Dispatcher, r Recorder, n collab.Notifier, a *audit.Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		dispatcher: d,
		recorder:   r,
		notifier:   n,
		auditor:    a,
		name:       "worker",
		deadline:   defaultDispatchDeadline,
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	eventChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "error processing event", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processEvent runs one event end to end under the dispatch deadline. The
// record always ends terminal: completed with the result to replay, or
// failed with the reason.
func (w *InMemoryWorker) processEvent(ctx context.Context, event Event) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.recorder.Begin(ctx, event.EventID); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "begin_failed")
		return fmt.Errorf("begin %s: %w", event.EventID, err)
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, w.deadline)
	result, err := w.dispatcher.Dispatch(dispatchCtx, event)
	cancel()
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "dispatch_failed")
		w.auditor.Record(ctx, event.EventID, audit.StageFailed, err.Error())
		if ferr := w.recorder.Fail(ctx, event.EventID, err.Error()); ferr != nil {
			w.logger.Error(ctx, "failed to mark record failed",
				logger.String("eventID", event.EventID),
				logger.Error(ferr),
			)
		}
		return fmt.Errorf("dispatch %s: %w", event.EventID, err)
	}

	// The result is stored before the reply goes out, so a crash between
	// the two replays the same response rather than re-running side effects.
	if err := w.recorder.Complete(ctx, event.EventID, result); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "complete_failed")
		return fmt.Errorf("complete %s: %w", event.EventID, err)
	}
	w.auditor.Record(ctx, event.EventID, audit.StageCompleted, result.Action)

	if err := w.notifier.Send(ctx, result.Response); err != nil {
		// The record stays completed: side effects ran, only the reply bounced.
		metrics.RecordNotifierError()
		w.logger.Warn(ctx, "response delivery failed",
			logger.String("eventID", event.EventID),
			logger.Error(err),
		)
		return nil
	}
	w.auditor.Record(ctx, event.EventID, audit.StageResponseSent, string(result.Response.Channel))
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, d Dispatcher, r Recorder, n collab.Notifier, a *audit.Recorder, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, d, r, n, a, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, w := range p.workers {
		close(w.shutdown)
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown drains and stops the pool. The queue is closed first so workers
// finish in-flight events and then observe the closed dequeue channel.
func (p *Pool) Shutdown(ctx context.Context, q interface{ Close() error }) error {
	if q != nil {
		if err := q.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
