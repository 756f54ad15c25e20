// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/subdiv/far"
	"github.com/gogpu/subdiv/osd"
)

// VertexBuffer is a device buffer of vertices records with elements
// float32 values each. It does not own its Context: after the Context is
// released every operation fails with ErrContextReleased.
type VertexBuffer struct {
	mu       sync.Mutex
	ctx      *Context
	buf      hal.Buffer
	elements int
	vertices int
	released bool
}

// NewVertexBuffer allocates a zeroed vertex buffer on ctx.
func NewVertexBuffer(ctx *Context, elements, vertices int) (*VertexBuffer, error) {
	if elements < 1 || vertices < 0 {
		return nil, fmt.Errorf("gpu: vertex buffer of %d x %d: %w", elements, vertices, far.ErrInvalidBufferSize)
	}
	device, queue, unlock, err := ctx.acquire()
	if err != nil {
		return nil, err
	}
	defer unlock()

	size := uint64(4 * elements * vertices) //nolint:gosec // sizes checked above
	buf, err := createBuffer(device, queue, "subdiv_vertices",
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc|gputypes.BufferUsageCopyDst,
		make([]byte, size), size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", osd.ErrBackendUnavailable, err)
	}
	return &VertexBuffer{ctx: ctx, buf: buf, elements: elements, vertices: vertices}, nil
}

// Elements returns the number of values per vertex.
func (b *VertexBuffer) Elements() int { return b.elements }

// Vertices returns the number of vertices.
func (b *VertexBuffer) Vertices() int { return b.vertices }

// Len returns the buffer length in float32 values.
func (b *VertexBuffer) Len() int { return b.elements * b.vertices }

// Descriptor returns the descriptor covering whole records.
func (b *VertexBuffer) Descriptor() osd.BufferDescriptor {
	return osd.BufferDescriptor{Length: b.elements, Stride: b.elements}
}

// UpdateData uploads count vertices from src starting at vertex start.
func (b *VertexBuffer) UpdateData(src []float32, start, count int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return ErrBufferReleased
	}
	if start < 0 || count < 0 || start+count > b.vertices {
		return &far.IndexError{What: "vertex range end", Index: start + count, Max: b.vertices + 1}
	}
	n := count * b.elements
	if len(src) < n {
		return &far.BufferSizeError{Buffer: "src", Expected: n, Actual: len(src)}
	}
	_, queue, unlock, err := b.ctx.acquire()
	if err != nil {
		return err
	}
	defer unlock()
	if n > 0 {
		queue.WriteBuffer(b.buf, uint64(4*start*b.elements), floatsToBytes(src[:n])) //nolint:gosec // range checked above
	}
	return nil
}

// ReadData downloads the whole buffer into dst, which must hold Len values.
func (b *VertexBuffer) ReadData(dst []float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return ErrBufferReleased
	}
	if len(dst) < b.Len() {
		return &far.BufferSizeError{Buffer: "dst", Expected: b.Len(), Actual: len(dst)}
	}
	device, queue, unlock, err := b.ctx.acquire()
	if err != nil {
		return err
	}
	defer unlock()
	if b.Len() == 0 {
		return nil
	}
	data, err := readBack(device, queue, b.buf, uint64(4*b.Len()), nil) //nolint:gosec // positive size
	if err != nil {
		return fmt.Errorf("%w: %w", osd.ErrBackendUnavailable, err)
	}
	bytesToFloats(data, dst[:b.Len()])
	return nil
}

// Release frees the device buffer. It is a no-op after the Context is
// released, since the device and its buffers are already gone.
func (b *VertexBuffer) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return
	}
	b.released = true
	device, _, unlock, err := b.ctx.acquire()
	if err != nil {
		return
	}
	defer unlock()
	device.DestroyBuffer(b.buf)
	b.buf = nil
}

// lock locks b for use by an evaluation on ctx and returns the matching
// unlock.
func (b *VertexBuffer) lock(ctx *Context) (func(), error) {
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return nil, ErrBufferReleased
	}
	if b.ctx != ctx {
		b.mu.Unlock()
		return nil, fmt.Errorf("gpu: vertex buffer belongs to another context: %w", osd.ErrInvalidDescriptor)
	}
	return b.mu.Unlock, nil
}
