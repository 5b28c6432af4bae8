// Package worker runs queued pipeline jobs on a fixed pool of goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/insights/internal/adapters/mq/queue"
	"github.com/okian/insights/internal/domain/pipeline"
	"github.com/okian/insights/pkg/logger"
	"github.com/okian/insights/pkg/metrics"
)

// Default worker configuration constants.
const (
	poolShutdownTimeout = 30 * time.Second
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, in pipeline.Loader) (*pipeline.Result, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// InMemoryWorker takes jobs off the queue and runs them one at a time.
type InMemoryWorker struct {
	queue  Queue
	runner Runner
	name   string
	busy   *atomic.Int64

	done   chan struct{}
	base   logger.Logger
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, runner Runner, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:  q,
		runner: runner,
		name:   "worker",
		busy:   &atomic.Int64{},
		done:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}
	if w.base == nil {
		w.base = logger.Get().Named("worker")
	}
	w.logger = w.base.With(logger.String("worker", w.name))

	return w
}

// Run processes jobs until the queue is drained and closed or ctx is done.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(job)
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// process runs a single job and replies to its submitter.
func (w *InMemoryWorker) process(job queue.Job) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	metrics.RecordQueueWait(float64(time.Since(job.Enqueued).Milliseconds()))

	ctx := job.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		// Submitter gave up while the job was waiting.
		metrics.RecordQueueRejected("cancelled")
		job.Complete(nil, err)
		return
	}

	metrics.UpdateWorkersBusy(int(w.busy.Add(1)))
	defer func() { metrics.UpdateWorkersBusy(int(w.busy.Add(-1))) }()

	res, err := w.run(ctx, job)
	if err != nil {
		w.logger.Debug(ctx, "job failed", logger.String("job", job.ID.String()), logger.Error(err))
	}
	job.Complete(res, err)
}

// run shields the pool from a panicking pipeline.
func (w *InMemoryWorker) run(ctx context.Context, job queue.Job) (res *pipeline.Result, err error) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordErrorByComponent("worker", "panic")
			w.logger.Error(ctx, "pipeline panicked", logger.String("job", job.ID.String()), logger.Any("panic", r))
			res, err = nil, &pipeline.Error{Kind: pipeline.KindInternal, Stage: "worker", Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return w.runner.Run(ctx, job.Input)
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   queue.Queue
	busy    atomic.Int64

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// NewPool creates a new worker pool. A workerCount below one uses one worker per CPU.
func NewPool(workerCount int, q queue.Queue, runner Runner, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
	}

	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(q, runner, append(opts, WithName("worker-"+strconv.Itoa(i)))...)
		w.busy = &pool.busy
		pool.workers[i] = w
	}
	pool.logger = pool.workers[0].base.Named("pool")

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Busy returns the number of workers currently running a job.
func (p *Pool) Busy() int { return int(p.busy.Load()) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel
	for _, w := range p.workers {
		go w.Run(runCtx)
	}
	p.started = true
	metrics.UpdateWorkersRunning(len(p.workers))
	metrics.UpdateWorkersBusy(0)
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Submit queues a pipeline run and waits for its result.
func (p *Pool) Submit(ctx context.Context, in pipeline.Loader) (*pipeline.Result, error) {
	job, reply := queue.NewJob(ctx, in)
	if err := p.queue.Enqueue(ctx, job); err != nil {
		return nil, err
	}
	select {
	case r := <-reply:
		return r.Result, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
// Workers still running when ctx expires are cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	p.mu.Lock()
	started, cancel := p.started, p.cancel
	p.started = false
	p.mu.Unlock()
	if !started {
		return nil
	}
	defer cancel()

	shutdownCtx, stop := context.WithTimeout(ctx, poolShutdownTimeout)
	defer stop()

	var timedOut error
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			timedOut = errors.Join(timedOut, fmt.Errorf("worker %d: %w", i, shutdownCtx.Err()))
			cancel()
		}
	}
	metrics.UpdateWorkersRunning(0)
	if timedOut != nil {
		return fmt.Errorf("shutdown timed out: %w", timedOut)
	}
	return nil
}
