// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gpu evaluates stencil tables with wgpu/hal compute shaders.
//
// A Context owns (or borrows) a hal device and queue. VertexBuffers are
// device buffers tied to one Context; releasing the Context invalidates
// every buffer created from it. The Evaluator implements osd.Evaluator for
// host slices and adds EvalStencilsBuffers for data kept on the device.
//
// The backend is not registered by default:
//
//	gpu.Register() // adds "gpu" to the osd registry at priority 100
//	ev, err := osd.Default()
//
// Stencil rows are evaluated one term per compute pass, so a table whose
// longest stencil has k entries costs k passes in a single submission.
package gpu
