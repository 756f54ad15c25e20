// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package osd

import "github.com/gogpu/subdiv/far"

// Evaluator applies a stencil table to caller buffers. For every stencil i
// and element e in [0, srcDesc.Length):
//
//	dst[dstDesc.Offset + i*dstDesc.Stride + e] =
//	    Σ_j w_ij * src[srcDesc.Offset + idx_ij*srcDesc.Stride + e]
//
// EvalStencils validates descriptors and buffer sizes before writing and
// returns once dst is fully written. src and dst may be one slice only if
// no dst value lands on a src value (see CheckAliasing). Errors wrap
// ErrEvalStencilsFailed.
type Evaluator interface {
	Name() string
	EvalStencils(src []float32, srcDesc BufferDescriptor,
		dst []float32, dstDesc BufferDescriptor, table *far.StencilTable) error
}

// Closer is implemented by evaluators that hold goroutines or device
// resources. Evaluators created through the registry should be closed
// when they provide it.
type Closer interface {
	Close()
}

// evalRange evaluates stencils [start, end). Every backend runs this same
// arithmetic in the same order so results match bit for bit.
func evalRange(src []float32, srcDesc BufferDescriptor, dst []float32, dstDesc BufferDescriptor,
	table *far.StencilTable, start, end int) {
	n := srcDesc.Length
	for i := start; i < end; i++ {
		s := table.Stencil(i)
		out := dst[dstDesc.Offset+i*dstDesc.Stride:][:n]
		clear(out)
		for k, idx := range s.Indices {
			w := s.Weights[k]
			in := src[srcDesc.Offset+idx*srcDesc.Stride:][:n]
			for e := range out {
				out[e] += w * in[e]
			}
		}
	}
}
