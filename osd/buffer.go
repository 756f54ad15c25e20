// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package osd

import (
	"fmt"

	"github.com/gogpu/subdiv/far"
)

// BufferDescriptor locates one attribute in an interleaved buffer, in
// float32 units. Vertex i's attribute occupies
// [Offset + i*Stride, Offset + i*Stride + Length).
type BufferDescriptor struct {
	Offset int
	Length int
	Stride int
}

// LocalOffset returns the offset of the attribute within one vertex record.
func (d BufferDescriptor) LocalOffset() int {
	if d.Stride <= 0 {
		return 0
	}
	return d.Offset % d.Stride
}

// IsValid reports whether the attribute fits within its vertex record.
func (d BufferDescriptor) IsValid() bool {
	return d.Length > 0 && d.Offset >= 0 && d.Length <= d.Stride-d.LocalOffset()
}

// IsEmpty reports whether the descriptor covers no data.
func (d BufferDescriptor) IsEmpty() bool { return d.Length == 0 }

// span returns the buffer length needed to hold count records.
func (d BufferDescriptor) span(count int) int {
	if count == 0 {
		return 0
	}
	return d.Offset + (count-1)*d.Stride + d.Length
}

// validate checks both descriptors against their buffers and the table
// before any write.
func validate(src []float32, srcDesc BufferDescriptor, dst []float32, dstDesc BufferDescriptor,
	table *far.StencilTable) error {
	if err := CheckBuffers(len(src), srcDesc, len(dst), dstDesc, table); err != nil {
		return err
	}
	return CheckAliasing(src, srcDesc, dst, dstDesc, table)
}

// CheckAliasing rejects src and dst slices that share a backing array and
// would have a written value read back as input. Records may share a buffer
// when the two ranges are disjoint, or when both use the same stride and
// their element windows within a record do not intersect. Call it after
// CheckBuffers.
func CheckAliasing(src []float32, srcDesc BufferDescriptor, dst []float32, dstDesc BufferDescriptor,
	table *far.StencilTable) error {
	srcHi, dstHi := srcDesc.span(table.ControlVertexCount()), dstDesc.span(table.Len())
	if srcHi == 0 || dstHi == 0 || !sameArray(src, dst) {
		return nil
	}
	// Positions relative to the common end of the backing array.
	srcLo, dstLo := srcDesc.Offset-cap(src), dstDesc.Offset-cap(dst)
	srcHi, dstHi = srcHi-cap(src), dstHi-cap(dst)
	if srcLo >= dstHi || dstLo >= srcHi {
		return nil
	}
	if stride := srcDesc.Stride; stride == dstDesc.Stride {
		// dst window start relative to the src window, within one record.
		d := ((dstLo-srcLo)%stride + stride) % stride
		if d >= srcDesc.Length && d+dstDesc.Length <= stride {
			return nil
		}
	}
	return fmt.Errorf("%w: %w: src and dst ranges overlap", ErrEvalStencilsFailed, ErrInvalidDescriptor)
}

// sameArray reports whether a and b end at the same element of their
// capacity, which holds only for slices of one backing array.
func sameArray(a, b []float32) bool {
	if cap(a) == 0 || cap(b) == 0 {
		return false
	}
	return &a[:cap(a)][cap(a)-1] == &b[:cap(b)][cap(b)-1]
}

// CheckBuffers validates an evaluation of table from a buffer of srcLen
// values into one of dstLen values. Backends that keep data off the host
// call it with their buffer sizes before dispatching. Errors wrap
// ErrEvalStencilsFailed.
func CheckBuffers(srcLen int, srcDesc BufferDescriptor, dstLen int, dstDesc BufferDescriptor,
	table *far.StencilTable) error {
	if table == nil {
		return fmt.Errorf("%w: nil stencil table", ErrEvalStencilsFailed)
	}
	if !srcDesc.IsValid() {
		return fmt.Errorf("%w: %w: src %+v", ErrEvalStencilsFailed, ErrInvalidDescriptor, srcDesc)
	}
	if !dstDesc.IsValid() {
		return fmt.Errorf("%w: %w: dst %+v", ErrEvalStencilsFailed, ErrInvalidDescriptor, dstDesc)
	}
	if srcDesc.Length != dstDesc.Length {
		return fmt.Errorf("%w: %w: src length %d, dst length %d",
			ErrEvalStencilsFailed, ErrInvalidDescriptor, srcDesc.Length, dstDesc.Length)
	}
	if need := srcDesc.span(table.ControlVertexCount()); srcLen < need {
		return fmt.Errorf("%w: %w", ErrEvalStencilsFailed,
			&far.BufferSizeError{Buffer: "src", Expected: need, Actual: srcLen})
	}
	if need := dstDesc.span(table.Len()); dstLen < need {
		return fmt.Errorf("%w: %w", ErrEvalStencilsFailed,
			&far.BufferSizeError{Buffer: "dst", Expected: need, Actual: dstLen})
	}
	return nil
}

// CPUVertexBuffer is a host-memory vertex buffer of fixed size.
type CPUVertexBuffer struct {
	elements int
	vertices int
	data     []float32
}

// NewCPUVertexBuffer allocates a zeroed buffer of vertices records of
// elements values each.
func NewCPUVertexBuffer(elements, vertices int) *CPUVertexBuffer {
	return &CPUVertexBuffer{
		elements: elements,
		vertices: vertices,
		data:     make([]float32, elements*vertices),
	}
}

// Elements returns the number of values per vertex.
func (b *CPUVertexBuffer) Elements() int { return b.elements }

// Vertices returns the number of vertices.
func (b *CPUVertexBuffer) Vertices() int { return b.vertices }

// Data returns the backing slice.
func (b *CPUVertexBuffer) Data() []float32 { return b.data }

// Descriptor returns the descriptor covering whole records.
func (b *CPUVertexBuffer) Descriptor() BufferDescriptor {
	return BufferDescriptor{Length: b.elements, Stride: b.elements}
}

// UpdateData copies count vertices from src into the buffer starting at
// vertex start.
func (b *CPUVertexBuffer) UpdateData(src []float32, start, count int) error {
	if start < 0 || count < 0 || start+count > b.vertices {
		return &far.IndexError{What: "vertex range end", Index: start + count, Max: b.vertices + 1}
	}
	n := count * b.elements
	if len(src) < n {
		return &far.BufferSizeError{Buffer: "src", Expected: n, Actual: len(src)}
	}
	copy(b.data[start*b.elements:], src[:n])
	return nil
}
