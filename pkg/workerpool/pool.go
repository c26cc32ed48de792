// Package workerpool provides a bounded goroutine pool with backpressure.
//
// When all workers are busy and the buffer is full, Submit returns
// ErrPoolFull immediately so the caller can decide to wait, retry or drop.
// The event dispatcher delivers async listeners through a Pool:
//
//	pool := workerpool.New(8)
//	defer pool.Shutdown()
//	event.UsePool(pool)
package workerpool

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/multidelivery/painel/pkg/logger"
)

var ErrPoolFull = errors.New("workerpool: pool is full")

var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Pool is a bounded goroutine pool.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup

	// mu guards closed so no send races with close(tasks).
	mu     sync.RWMutex
	closed bool
}

// New creates a Pool with size workers and a buffer of 2×size tasks.
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

// SubmitWait blocks until a slot frees up. Shutdown waits for it to return.
func (p *Pool) SubmitWait(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.tasks <- task
	return nil
}

// Pending returns the number of queued tasks not yet picked up.
func (p *Pool) Pending() int { return len(p.tasks) }

// Shutdown stops accepting tasks, runs what is queued and waits for the
// workers to exit. Safe to call more than once.
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

// safeRun keeps a panicking task from killing its worker.
func safeRun(task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("workerpool: task panicked",
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	task()
}
