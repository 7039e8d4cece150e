package worker

import (
	"log/slog"
	"sync"

	"github.com/baharkarakas/premiumshop-backend/internal/metrics"
)

type task func()

type Pool struct {
	wg     sync.WaitGroup
	jobs   chan task
	log    *slog.Logger
	mu     sync.RWMutex
	closed bool
}

func NewPool(n, buffer int, log *slog.Logger) *Pool {
	if n <= 0 {
		n = 1
	}
	p := &Pool{jobs: make(chan task, buffer), log: log}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				metrics.WorkerQueueDepth.Dec()
				p.run(job)
			}
		}()
	}
	return p
}

func (p *Pool) run(job task) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error("worker job panic", "err", rec)
		}
	}()
	job()
}

// Submit queues f without blocking. It reports false when the queue is full or the
// pool is stopped; the caller decides whether to run f itself.
func (p *Pool) Submit(f task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- f:
		metrics.WorkerQueueDepth.Inc()
		return true
	default:
		return false
	}
}

// Go runs f on the pool, or inline when the pool cannot take it.
func (p *Pool) Go(f func()) {
	if p == nil || !p.Submit(f) {
		f()
	}
}

// Stop drains queued jobs and waits for the workers.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
