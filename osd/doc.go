// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package osd evaluates stencil tables on caller buffers.
//
// Every backend implements [Evaluator]. The sequential [CPUEvaluator] is
// the reference; [ParallelEvaluator] splits stencil rows across a worker
// pool and produces bit-identical results. A GPU backend lives in
// osd/gpu and registers itself with [Register] on request.
//
// Buffers are flat float32 slices described by a [BufferDescriptor], so
// several attributes can be interleaved in one buffer:
//
//	// xyz positions followed by uv in a stride-5 buffer
//	pos := osd.BufferDescriptor{Offset: 0, Length: 3, Stride: 5}
//	err := osd.NewCPUEvaluator().EvalStencils(src, pos, dst, pos, table)
//
// Backends are selected explicitly, by value or by registry name:
//
//	ev, err := osd.New("parallel")
package osd
