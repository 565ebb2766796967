// Package workerpool is a bounded goroutine pool with backpressure. Payment
// reconciliation uses it to cap concurrent gateway lookups.
//
//	pool := workerpool.New(4)
//	defer pool.Shutdown()
//
//	if err := pool.Submit(task); errors.Is(err, workerpool.ErrPoolFull) {
//	    // shed load
//	}
package workerpool

import (
	"errors"
	"sync"

	"github.com/perennia/storefront/pkg/logger"
)

// ErrPoolFull is returned by Submit when every worker is busy and the queue
// is at capacity.
var ErrPoolFull = errors.New("workerpool: pool is full")

// ErrPoolClosed is returned after Shutdown.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

type Pool struct {
	mu     sync.RWMutex
	closed bool
	tasks  chan func()
	wg     sync.WaitGroup
}

// New starts size workers. The queue holds twice as many pending tasks.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{tasks: make(chan func(), size*2)}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues task without blocking.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait blocks until the task is queued.
func (p *Pool) SubmitWait(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.tasks <- task
	return nil
}

// Shutdown stops accepting tasks and waits for the queued ones to finish.
// It is safe to call more than once.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		safeRun(task)
	}
}

func safeRun(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("workerpool: task panicked", "panic", r)
		}
	}()
	task()
}
