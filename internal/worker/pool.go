// Package worker runs batches of independent jobs on a fixed number of
// goroutines.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrPoolClosed is returned by Submit after Close or Stop.
var ErrPoolClosed = errors.New("worker pool is closed")

// Job is one unit of work.
type Job struct {
	ID  int
	Run func(ctx context.Context) error
}

// Result reports how a job went.
type Result struct {
	JobID    int
	WorkerID int
	Err      error
	Duration time.Duration
}

// Pool represents a worker pool for running jobs
type Pool struct {
	size    int
	jobs    chan Job
	results chan Result
	logger  *zap.Logger
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewPool creates a new worker pool
func NewPool(size, queueSize int, logger *zap.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		size:    size,
		jobs:    make(chan Job, queueSize),
		results: make(chan Result, queueSize),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start starts the workers
func (p *Pool) Start() {
	p.logger.Debug("starting worker pool", zap.Int("pool_size", p.size))

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobs {
		if p.ctx.Err() != nil {
			// drain without running after Stop
			continue
		}

		start := time.Now()
		err := job.Run(p.ctx)
		result := Result{JobID: job.ID, WorkerID: id, Err: err, Duration: time.Since(start)}

		if err != nil {
			p.logger.Debug("job failed",
				zap.Int("worker_id", id),
				zap.Int("job_id", job.ID),
				zap.Error(err))
		}

		p.results <- result
	}
}

// Submit queues a job, blocking while the queue is full.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrPoolClosed
	}
}

// Results delivers one Result per executed job and is closed once every
// worker has exited. It must be drained.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Close stops accepting jobs; queued jobs still run.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.jobs)
}

// Stop cancels running jobs and discards queued ones.
func (p *Pool) Stop() {
	p.logger.Debug("stopping worker pool")
	p.cancel()
	p.Close()
}
