// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package parallel provides the work-stealing worker pool behind the
// task-parallel stencil evaluator.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs batches of work on a fixed set of goroutines.
//
// Each worker owns a queue and steals from the others when its own queue is
// empty, which evens out batches of unequal cost (stencils near
// extraordinary vertices are wider than regular ones).
//
// WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	// inFlight is held for reading by ExecuteAll so that Close waits for
	// submitted batches before stopping the workers.
	inFlight sync.RWMutex
}

// NewWorkerPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case <-p.done:
			drain(own)
			return
		case work := <-own:
			work()
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				drain(own)
				return
			case work := <-own:
				work()
			}
		}
	}
}

func drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			work()
		default:
			return
		}
	}
}

// steal takes one item from another worker's queue, or returns nil.
func (p *WorkerPool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case work := <-p.queues[i]:
			return work
		default:
		}
	}
	return nil
}

// ExecuteAll runs every item and returns when all have finished.
// It returns false without running anything if the pool is closed.
func (p *WorkerPool) ExecuteAll(work []func()) bool {
	p.inFlight.RLock()
	defer p.inFlight.RUnlock()
	if !p.running.Load() {
		return false
	}
	if len(work) == 0 {
		return true
	}

	var wg sync.WaitGroup
	wg.Add(len(work))
	for i, fn := range work {
		wrapped := func() {
			defer wg.Done()
			fn()
		}
		p.queues[i%p.workers] <- wrapped
	}
	wg.Wait()
	return true
}

// ForRange splits [0, n) into contiguous batches of at most batch items and
// calls fn(start, end) for each batch on the pool, returning once all
// batches are done. It returns false if the pool is closed.
func (p *WorkerPool) ForRange(n, batch int, fn func(start, end int)) bool {
	if batch <= 0 {
		batch = 1
	}
	work := make([]func(), 0, (n+batch-1)/batch)
	for start := 0; start < n; start += batch {
		end := min(start+batch, n)
		work = append(work, func() { fn(start, end) })
	}
	return p.ExecuteAll(work)
}

// Close waits for running ExecuteAll calls, then stops the workers. It is
// safe to call more than once.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	p.inFlight.Lock()
	close(p.done)
	p.inFlight.Unlock()
	p.wg.Wait()
}

// Workers returns the number of workers.
func (p *WorkerPool) Workers() int { return p.workers }

// IsRunning reports whether the pool accepts work.
func (p *WorkerPool) IsRunning() bool { return p.running.Load() }
