// Package pool runs request handlers on a fixed set of long-lived workers
// that share one unbounded FIFO queue.
package pool

import (
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/homepage/errors"
	"github.com/teranos/homepage/logger"
)

// Job is a self-contained unit of work. It captures everything it needs when
// created and is executed by exactly one worker.
type Job func()

// ErrPoolClosed is returned by Submit once Shutdown has begun
var ErrPoolClosed = errors.New("worker pool is closed")

// Config contains configuration for the worker pool
type Config struct {
	Workers int `json:"workers"` // Number of concurrent workers, must be > 0
}

// Observer receives queue and execution events, typically for metrics.
// Methods are called outside the queue lock and must be safe for concurrent use.
type Observer interface {
	JobQueued(pending int)
	JobStarted(pending int)
	JobFinished(duration time.Duration, panicked bool)
}

// Option configures optional WorkerPool behaviour
type Option func(*WorkerPool)

// WithObserver attaches an Observer
func WithObserver(o Observer) Option {
	return func(wp *WorkerPool) { wp.observer = o }
}

// WorkerPool manages a fixed number of workers draining a shared queue
type WorkerPool struct {
	workers  int
	logger   *zap.SugaredLogger
	observer Observer

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Job
	closed bool
	active int    // Workers currently executing a job
	panics uint64 // Jobs that panicked since construction

	wg sync.WaitGroup
}

// New creates the pool and starts its workers.
// Workers live until Shutdown; there is no separate Start.
func New(cfg Config, log *zap.SugaredLogger, opts ...Option) (*WorkerPool, error) {
	if cfg.Workers <= 0 {
		return nil, errors.Newf("worker pool needs at least one worker, got %d", cfg.Workers)
	}

	wp := &WorkerPool{
		workers: cfg.Workers,
		logger:  logger.OrNop(log),
	}
	wp.cond = sync.NewCond(&wp.mu)
	for _, opt := range opts {
		opt(wp)
	}

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}

	wp.logger.Debugw("✿ Worker pool started", logger.FieldWorkers, wp.workers)
	return wp, nil
}

// Submit enqueues job and returns immediately without waiting for it to run.
// Returns ErrPoolClosed after Shutdown has begun.
func (wp *WorkerPool) Submit(job Job) error {
	if job == nil {
		return errors.New("cannot submit a nil job")
	}

	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return ErrPoolClosed
	}
	wp.queue = append(wp.queue, job)
	pending := len(wp.queue)
	wp.mu.Unlock()

	wp.cond.Signal()
	if wp.observer != nil {
		wp.observer.JobQueued(pending)
	}
	return nil
}

// Shutdown stops accepting jobs, lets the workers drain everything already
// queued and waits for all of them to exit. Safe to call more than once.
func (wp *WorkerPool) Shutdown() {
	wp.close()
	wp.wg.Wait()
	wp.logger.Debugw("❀ Worker pool stopped - all workers exited cleanly")
}

// ShutdownTimeout is Shutdown bounded by timeout. It reports whether every
// worker exited in time; on false the remaining jobs keep draining in the background.
func (wp *WorkerPool) ShutdownTimeout(timeout time.Duration) bool {
	wp.close()

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.logger.Debugw("❀ Worker pool stopped - all workers exited cleanly")
		return true
	case <-time.After(timeout):
		wp.logger.Warnw("❀ Worker pool shutdown timed out - jobs still draining",
			"timeout", timeout,
			logger.FieldPending, wp.Pending(),
			"active", wp.Active(),
		)
		return false
	}
}

func (wp *WorkerPool) close() {
	wp.mu.Lock()
	already := wp.closed
	wp.closed = true
	pending := len(wp.queue)
	wp.mu.Unlock()

	if already {
		return
	}
	wp.logger.Infow("Worker pool draining", logger.FieldPending, pending, logger.FieldWorkers, wp.workers)
	wp.cond.Broadcast()
}

// worker loops dequeue/execute until the queue is closed and empty
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		job, ok := wp.next()
		if !ok {
			return
		}

		start := time.Now()
		panicked := wp.execute(id, job)

		wp.mu.Lock()
		wp.active--
		if panicked {
			wp.panics++
		}
		wp.mu.Unlock()

		if wp.observer != nil {
			wp.observer.JobFinished(time.Since(start), panicked)
		}
	}
}

// next blocks until a job is available. ok is false once the pool is closed and drained.
func (wp *WorkerPool) next() (job Job, ok bool) {
	wp.mu.Lock()
	for len(wp.queue) == 0 && !wp.closed {
		wp.cond.Wait()
	}
	if len(wp.queue) == 0 {
		wp.mu.Unlock()
		return nil, false
	}

	job = wp.queue[0]
	wp.queue[0] = nil
	wp.queue = wp.queue[1:]
	wp.active++
	pending := len(wp.queue)
	wp.mu.Unlock()

	if wp.observer != nil {
		wp.observer.JobStarted(pending)
	}
	return job, true
}

// execute runs job, recovering a panic so the worker keeps serving
func (wp *WorkerPool) execute(id int, job Job) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			wp.logger.Errorw("Job panicked",
				"worker_id", id,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	job()
	return false
}

// Workers returns the number of workers configured for this pool
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Pending returns the number of queued jobs not yet picked up
func (wp *WorkerPool) Pending() int {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return len(wp.queue)
}

// Active returns the number of workers currently executing a job
func (wp *WorkerPool) Active() int {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.active
}

// Panics returns how many jobs have panicked
func (wp *WorkerPool) Panics() uint64 {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.panics
}

// Closed reports whether Shutdown has begun
func (wp *WorkerPool) Closed() bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	return wp.closed
}
