// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package subdiv computes subdivision surfaces from coarse polygonal
// control meshes and re-evaluates per-vertex data ("primvars") cheaply
// when only control-point values change.
//
// # Overview
//
// Work flows one way through the sub-packages:
//
//	far.TopologyDescriptor -> far.TopologyRefiner -> far.Level
//	    -> far.StencilTable -> osd.Evaluator(buffers) -> refined primvars
//
//   - sdc: subdivision rules (Catmull-Clark, Loop, Bilinear), creases,
//     vertex rules and the per-scheme weight masks
//   - far: topology refinement, primvar refinement and stencil tables
//   - osd: buffer descriptors and stencil evaluators (sequential,
//     task-parallel, GPU via osd/gpu)
//   - cache: sharded cache of built stencil tables
//   - config: YAML configuration of refiner, stencil and evaluator options
//
// # Quick Start
//
//	desc := far.TopologyDescriptor{
//	    VertexCount:       8,
//	    FaceVertexCounts:  []int{4, 4, 4, 4, 4, 4},
//	    FaceVertexIndices: cubeIndices,
//	}
//	opts := sdc.DefaultOptions()
//	opts.VtxBoundaryInterpolation = sdc.BoundaryEdgeOnly
//
//	refiner, err := far.NewTopologyRefiner(desc, opts)
//	if err != nil {
//	    return err
//	}
//	if err := refiner.RefineUniform(far.UniformOptions{RefinementLevel: 2}); err != nil {
//	    return err
//	}
//
//	table, err := far.NewStencilTableFactory().Create(refiner, far.DefaultStencilTableOptions())
//	if err != nil {
//	    return err
//	}
//
//	ev := osd.NewCPUEvaluator()
//	err = ev.EvalStencils(points, osd.BufferDescriptor{Length: 3, Stride: 3},
//	    refined, osd.BufferDescriptor{Length: 3, Stride: 3}, table)
//
// # Concurrency
//
// Refiners and stencil tables are immutable once built and may be read by
// any number of goroutines. Evaluation is synchronous: the destination
// buffer is fully written when EvalStencils returns.
//
// # Logging
//
// subdiv is silent by default. Call [SetLogger] to route diagnostics to a
// [log/slog] logger.
package subdiv
