package worker

import (
	"context"
	"sync"
	"time"

	"github.com/briggon/dataplane/internal/logger"
	"github.com/briggon/dataplane/internal/queue"
)

// DefaultConcurrency is the number of worker goroutines when unset.
const DefaultConcurrency = 4

// Pool runs a fixed number of worker goroutines draining the execution
// queue. Multiple pools (in separate processes) can safely share the same
// queue and record store: the queue hands each task to exactly one
// worker, and the record store's claim rejects everything else.
type Pool struct {
	queue       queue.Queue
	executor    *Executor
	concurrency int

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewPool creates a worker pool.
func NewPool(q queue.Queue, executor *Executor, concurrency int) *Pool {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Pool{
		queue:       q,
		executor:    executor,
		concurrency: concurrency,
		stopCh:      make(chan struct{}),
	}
}

// Start launches the worker goroutines. It returns immediately.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true

	logger.Infof("Starting worker pool with %d workers", p.concurrency)
	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

// Stop signals the workers to finish their current job and waits for
// them to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
	logger.Info("Worker pool stopped")
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		task, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Errorf("Worker %d failed to dequeue: %v", id, err)
			select {
			case <-time.After(time.Second):
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
			continue
		}
		if task == nil {
			continue
		}

		if err := p.executor.Execute(ctx, task); err != nil {
			logger.Errorf("Worker %d failed to execute job %s: %v", id, task.JobID, err)
		}
	}
}
