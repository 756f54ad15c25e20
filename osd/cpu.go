// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package osd

import "github.com/gogpu/subdiv/far"

// CPUEvaluator evaluates stencils sequentially on the calling goroutine.
// It is the reference backend. The zero value is ready to use.
type CPUEvaluator struct{}

// NewCPUEvaluator returns a sequential evaluator.
func NewCPUEvaluator() *CPUEvaluator { return &CPUEvaluator{} }

// Name returns "cpu".
func (*CPUEvaluator) Name() string { return "cpu" }

// EvalStencils implements Evaluator.
func (*CPUEvaluator) EvalStencils(src []float32, srcDesc BufferDescriptor,
	dst []float32, dstDesc BufferDescriptor, table *far.StencilTable) error {
	if err := validate(src, srcDesc, dst, dstDesc, table); err != nil {
		return err
	}
	evalRange(src, srcDesc, dst, dstDesc, table, 0, table.Len())
	return nil
}
