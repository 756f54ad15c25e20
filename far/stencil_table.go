// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package far

import "fmt"

// Stencil is a view of one row of a StencilTable. Its slices alias the
// table's storage and must not be modified. Derivative slices are nil
// unless the table was built with derivatives.
type Stencil struct {
	Indices []int
	Weights []float32

	DuWeights  []float32
	DvWeights  []float32
	DuuWeights []float32
	DuvWeights []float32
	DvvWeights []float32
}

// Size returns the number of control vertices the stencil combines.
func (s Stencil) Size() int { return len(s.Indices) }

// StencilTable holds one stencil per refined vertex, each a weighted
// combination of control vertices. A table is immutable once built and
// safe for concurrent use.
type StencilTable struct {
	controlVertexCount int

	sizes   []int
	offsets []int
	indices []int
	weights []float32

	duWeights  []float32
	dvWeights  []float32
	duuWeights []float32
	duvWeights []float32
	dvvWeights []float32

	// levelStarts[k] is the first row built from levelDepths[k].
	levelStarts []int
	levelDepths []int

	exposeOffsets bool
}

// Len returns the number of stencils.
func (t *StencilTable) Len() int { return len(t.sizes) }

// ControlVertexCount returns the number of control vertices the stencils
// reference.
func (t *StencilTable) ControlVertexCount() int { return t.controlVertexCount }

// Stencil returns stencil i.
func (t *StencilTable) Stencil(i int) Stencil {
	lo, hi := t.offsets[i], t.offsets[i]+t.sizes[i]
	return Stencil{
		Indices:    t.indices[lo:hi:hi],
		Weights:    t.weights[lo:hi:hi],
		DuWeights:  window(t.duWeights, lo, hi),
		DvWeights:  window(t.dvWeights, lo, hi),
		DuuWeights: window(t.duuWeights, lo, hi),
		DuvWeights: window(t.duvWeights, lo, hi),
		DvvWeights: window(t.dvvWeights, lo, hi),
	}
}

func window(s []float32, lo, hi int) []float32 {
	if s == nil {
		return nil
	}
	return s[lo:hi:hi]
}

// Sizes returns the number of control vertices of every stencil.
func (t *StencilTable) Sizes() []int { return t.sizes }

// Offsets returns the start of every stencil in ControlIndices and
// Weights, or nil unless the table was built with GenerateOffsets.
func (t *StencilTable) Offsets() []int {
	if !t.exposeOffsets {
		return nil
	}
	return t.offsets
}

// ControlIndices returns the control vertex indices of all stencils.
func (t *StencilTable) ControlIndices() []int { return t.indices }

// Weights returns the weights of all stencils.
func (t *StencilTable) Weights() []float32 { return t.weights }

// DuWeights returns the first derivative weights in u, or nil.
func (t *StencilTable) DuWeights() []float32 { return t.duWeights }

// DvWeights returns the first derivative weights in v, or nil.
func (t *StencilTable) DvWeights() []float32 { return t.dvWeights }

// DuuWeights returns the second derivative weights in uu, or nil.
func (t *StencilTable) DuuWeights() []float32 { return t.duuWeights }

// DuvWeights returns the second derivative weights in uv, or nil.
func (t *StencilTable) DuvWeights() []float32 { return t.duvWeights }

// DvvWeights returns the second derivative weights in vv, or nil.
func (t *StencilTable) DvvWeights() []float32 { return t.dvvWeights }

// Level returns the refinement depth that produced stencil i. Control
// vertex stencils report 0.
func (t *StencilTable) Level(i int) int {
	depth := 0
	for k, start := range t.levelStarts {
		if i < start {
			break
		}
		depth = t.levelDepths[k]
	}
	return depth
}

// UpdateValues evaluates stencils [start, end) on the CPU. src holds
// elements values per control vertex; stencil i writes
// dst[i*elements : (i+1)*elements].
func (t *StencilTable) UpdateValues(src, dst []float32, elements, start, end int) error {
	if elements < 1 {
		return fmt.Errorf("%w: %d elements per vertex", ErrInvalidBufferSize, elements)
	}
	if start < 0 || start > end {
		return &IndexError{What: "stencil range start", Index: start, Max: end + 1}
	}
	if end > t.Len() {
		return &IndexError{What: "stencil range end", Index: end, Max: t.Len() + 1}
	}
	if want := elements * t.controlVertexCount; len(src) < want {
		return &BufferSizeError{Buffer: "src", Expected: want, Actual: len(src)}
	}
	if want := elements * end; len(dst) < want {
		return &BufferSizeError{Buffer: "dst", Expected: want, Actual: len(dst)}
	}

	for i := start; i < end; i++ {
		out := dst[i*elements : (i+1)*elements]
		clear(out)
		lo, hi := t.offsets[i], t.offsets[i]+t.sizes[i]
		for k := lo; k < hi; k++ {
			w := t.weights[k]
			idx := t.indices[k]
			in := src[idx*elements : (idx+1)*elements]
			for e := range out {
				out[e] += w * in[e]
			}
		}
	}
	return nil
}
