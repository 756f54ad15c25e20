// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package osd

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/subdiv/far"
	"github.com/gogpu/subdiv/internal/parallel"
)

// defaultBatchSize is the number of stencils per work item.
const defaultBatchSize = 256

var errParallelClosed = fmt.Errorf("%w: %w: parallel evaluator closed", ErrEvalStencilsFailed, ErrBackendUnavailable)

// ParallelOption configures a ParallelEvaluator.
//
// Example:
//
//	ev := osd.NewParallelEvaluator(osd.WithWorkers(4), osd.WithBatchSize(1024))
//	defer ev.Close()
type ParallelOption func(*parallelOptions)

type parallelOptions struct {
	workers   int
	batchSize int
}

// WithWorkers sets the number of worker goroutines. Zero or a negative
// value uses GOMAXPROCS.
func WithWorkers(n int) ParallelOption {
	return func(o *parallelOptions) {
		o.workers = n
	}
}

// WithBatchSize sets the number of contiguous stencils per work item.
func WithBatchSize(n int) ParallelOption {
	return func(o *parallelOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// ParallelEvaluator splits stencil rows into contiguous batches and
// evaluates them on a worker pool. Rows are independent, so the only
// synchronization is the barrier before EvalStencils returns.
//
// ParallelEvaluator is safe for concurrent use. Call Close to stop its
// workers.
type ParallelEvaluator struct {
	pool      *parallel.WorkerPool
	batchSize int
	closed    atomic.Bool
}

// NewParallelEvaluator starts a task-parallel evaluator.
func NewParallelEvaluator(opts ...ParallelOption) *ParallelEvaluator {
	o := parallelOptions{batchSize: defaultBatchSize}
	for _, opt := range opts {
		opt(&o)
	}
	return &ParallelEvaluator{
		pool:      parallel.NewWorkerPool(o.workers),
		batchSize: o.batchSize,
	}
}

// Name returns "parallel".
func (*ParallelEvaluator) Name() string { return "parallel" }

// Workers returns the number of worker goroutines.
func (p *ParallelEvaluator) Workers() int { return p.pool.Workers() }

// EvalStencils implements Evaluator.
func (p *ParallelEvaluator) EvalStencils(src []float32, srcDesc BufferDescriptor,
	dst []float32, dstDesc BufferDescriptor, table *far.StencilTable) error {
	if p.closed.Load() {
		return errParallelClosed
	}
	if err := validate(src, srcDesc, dst, dstDesc, table); err != nil {
		return err
	}
	n := table.Len()
	if n <= p.batchSize {
		evalRange(src, srcDesc, dst, dstDesc, table, 0, n)
		return nil
	}
	ok := p.pool.ForRange(n, p.batchSize, func(start, end int) {
		evalRange(src, srcDesc, dst, dstDesc, table, start, end)
	})
	if !ok {
		return errParallelClosed
	}
	return nil
}

// Close stops the worker pool. EvalStencils fails with
// ErrBackendUnavailable afterwards.
func (p *ParallelEvaluator) Close() {
	p.closed.Store(true)
	p.pool.Close()
}
