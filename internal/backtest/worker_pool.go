package backtest

import (
	"context"
	"runtime"
	"sync"
	"time"

	"solana-strategy-lab/internal/strategy"
)

// Job is one strategy variant to backtest.
type Job struct {
	Strategy strategy.ExitStrategy
}

// JobResult is the outcome of one backtest job.
type JobResult struct {
	StrategyName string
	Result       *Result
	Duration     time.Duration
	Err          error
}

// runFunc executes one strategy over the full signal set.
type runFunc func(ctx context.Context, s strategy.ExitStrategy) (*Result, error)

// WorkerPool runs strategy variants in parallel. Simulations share no
// mutable state, so variants are independent jobs.
type WorkerPool struct {
	workerCount int
	jobQueue    chan Job
	resultQueue chan JobResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	run         runFunc
}

// NewWorkerPool creates a worker pool. workerCount <= 0 means one worker
// per CPU.
func NewWorkerPool(parent context.Context, workerCount, jobBufferSize int, run runFunc) *WorkerPool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(parent)

	return &WorkerPool{
		workerCount: workerCount,
		jobQueue:    make(chan Job, jobBufferSize),
		resultQueue: make(chan JobResult, jobBufferSize),
		ctx:         ctx,
		cancel:      cancel,
		run:         run,
	}
}

// Start starts the workers.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Stop stops the pool gracefully.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// SubmitJob submits a job to the pool.
func (wp *WorkerPool) SubmitJob(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// Results returns the channel of completed jobs.
func (wp *WorkerPool) Results() <-chan JobResult {
	return wp.resultQueue
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}

			result := wp.processJob(job)

			select {
			case wp.resultQueue <- result:
			case <-wp.ctx.Done():
				return
			}

		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) processJob(job Job) JobResult {
	startTime := time.Now()

	result, err := wp.run(wp.ctx, job.Strategy)

	return JobResult{
		StrategyName: job.Strategy.Name(),
		Result:       result,
		Duration:     time.Since(startTime),
		Err:          err,
	}
}
