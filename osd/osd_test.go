// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package osd

import (
	"errors"
	"testing"

	"github.com/gogpu/subdiv/far"
	"github.com/gogpu/subdiv/sdc"
)

func cubeTable(t testing.TB, levels int) *far.StencilTable {
	t.Helper()
	desc := far.TopologyDescriptor{
		VertexCount:      8,
		FaceVertexCounts: []int{4, 4, 4, 4, 4, 4},
		FaceVertexIndices: []int{
			0, 1, 3, 2, 2, 3, 5, 4, 4, 5, 7, 6,
			6, 7, 1, 0, 1, 7, 5, 3, 6, 0, 2, 4,
		},
	}
	r, err := far.NewTopologyRefiner(desc, sdc.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if err := r.RefineUniform(far.UniformOptions{RefinementLevel: levels, OrderVerticesFromFacesFirst: true}); err != nil {
		t.Fatal(err)
	}
	table, err := far.NewStencilTableFactory().Create(r, far.DefaultStencilTableOptions())
	if err != nil {
		t.Fatal(err)
	}
	return table
}

// interleaved returns 8 records of stride 5: xyz then uv.
func interleaved() []float32 {
	pos := []float32{
		-0.5, -0.5, 0.5, 0.5, -0.5, 0.5, -0.5, 0.5, 0.5, 0.5, 0.5, 0.5,
		-0.5, 0.5, -0.5, 0.5, 0.5, -0.5, -0.5, -0.5, -0.5, 0.5, -0.5, -0.5,
	}
	out := make([]float32, 0, 8*5)
	for v := range 8 {
		out = append(out, pos[3*v:3*v+3]...)
		out = append(out, float32(v)*0.125, 1-float32(v)*0.125)
	}
	return out
}

// =============================================================================
// BufferDescriptor
// =============================================================================

func TestBufferDescriptor(t *testing.T) {
	tests := []struct {
		desc        BufferDescriptor
		localOffset int
		valid       bool
		empty       bool
	}{
		{BufferDescriptor{0, 3, 3}, 0, true, false},
		{BufferDescriptor{3, 2, 5}, 3, true, false},
		{BufferDescriptor{13, 2, 5}, 3, true, false},
		{BufferDescriptor{4, 2, 5}, 4, false, false},
		{BufferDescriptor{0, 0, 3}, 0, false, true},
		{BufferDescriptor{0, 4, 3}, 0, false, false},
		{BufferDescriptor{0, 1, 0}, 0, false, false},
	}
	for _, tt := range tests {
		if got := tt.desc.LocalOffset(); got != tt.localOffset {
			t.Errorf("%+v.LocalOffset() = %d, want %d", tt.desc, got, tt.localOffset)
		}
		if got := tt.desc.IsValid(); got != tt.valid {
			t.Errorf("%+v.IsValid() = %v, want %v", tt.desc, got, tt.valid)
		}
		if got := tt.desc.IsEmpty(); got != tt.empty {
			t.Errorf("%+v.IsEmpty() = %v, want %v", tt.desc, got, tt.empty)
		}
	}
}

// =============================================================================
// CPUEvaluator
// =============================================================================

func TestCPUEvaluator_MatchesUpdateValues(t *testing.T) {
	table := cubeTable(t, 2)
	src := interleaved()

	pos := BufferDescriptor{Offset: 0, Length: 3, Stride: 5}
	dst := make([]float32, 5*table.Len())
	if err := NewCPUEvaluator().EvalStencils(src, pos, dst, pos, table); err != nil {
		t.Fatal(err)
	}

	packed := make([]float32, 3*8)
	for v := range 8 {
		copy(packed[3*v:], src[5*v:5*v+3])
	}
	want := make([]float32, 3*table.Len())
	if err := table.UpdateValues(packed, want, 3, 0, table.Len()); err != nil {
		t.Fatal(err)
	}
	for i := range table.Len() {
		for e := range 3 {
			if dst[5*i+e] != want[3*i+e] {
				t.Fatalf("row %d element %d = %v, want %v", i, e, dst[5*i+e], want[3*i+e])
			}
		}
		if dst[5*i+3] != 0 || dst[5*i+4] != 0 {
			t.Fatalf("row %d wrote outside its descriptor", i)
		}
	}
}

func TestCPUEvaluator_SecondAttribute(t *testing.T) {
	table := cubeTable(t, 1)
	src := interleaved()
	uv := BufferDescriptor{Offset: 3, Length: 2, Stride: 5}
	dst := make([]float32, 2*table.Len())
	dstDesc := BufferDescriptor{Offset: 0, Length: 2, Stride: 2}
	if err := NewCPUEvaluator().EvalStencils(src, uv, dst, dstDesc, table); err != nil {
		t.Fatal(err)
	}
	for i := range table.Len() {
		// u + v is 1 for every control vertex, so it is 1 for every stencil.
		if s := dst[2*i] + dst[2*i+1]; s < 0.99999 || s > 1.00001 {
			t.Fatalf("row %d: u+v = %v, want 1", i, s)
		}
	}
}

func TestEvalStencils_Errors(t *testing.T) {
	table := cubeTable(t, 1)
	src := interleaved()
	desc := BufferDescriptor{Length: 3, Stride: 5}
	dst := make([]float32, 5*table.Len())
	shared := make([]float32, 5*(8+table.Len()))
	copy(shared, src)

	tests := []struct {
		name       string
		src        []float32
		srcDesc    BufferDescriptor
		dst        []float32
		dstDesc    BufferDescriptor
		table      *far.StencilTable
		descriptor bool
	}{
		{"nil table", src, desc, dst, desc, nil, false},
		{"invalid src", src, BufferDescriptor{Length: 6, Stride: 5}, dst, desc, table, true},
		{"invalid dst", src, desc, dst, BufferDescriptor{Length: 0, Stride: 5}, table, true},
		{"length mismatch", src, desc, dst, BufferDescriptor{Length: 2, Stride: 5}, table, true},
		{"short src", src[:30], desc, dst, desc, table, false},
		{"short dst", src, desc, dst[:5*table.Len()-3], desc, table, false},
		{"overlapping", shared, desc, shared[20:], desc, table, true},
		{"overlapping windows", shared, desc, shared, BufferDescriptor{Offset: 2, Length: 3, Stride: 5}, table, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, ev := range []Evaluator{NewCPUEvaluator(), NewParallelEvaluator(WithWorkers(2))} {
				before := append([]float32(nil), tt.dst...)
				err := ev.EvalStencils(tt.src, tt.srcDesc, tt.dst, tt.dstDesc, tt.table)
				if !errors.Is(err, ErrEvalStencilsFailed) {
					t.Fatalf("%s: error = %v, want ErrEvalStencilsFailed", ev.Name(), err)
				}
				if tt.descriptor && !errors.Is(err, ErrInvalidDescriptor) {
					t.Errorf("%s: error = %v, want ErrInvalidDescriptor", ev.Name(), err)
				}
				for i := range before {
					if before[i] != tt.dst[i] {
						t.Fatalf("%s: dst modified on error", ev.Name())
					}
				}
				if c, ok := ev.(Closer); ok {
					c.Close()
				}
			}
		})
	}
}

// =============================================================================
// ParallelEvaluator
// =============================================================================

func TestParallelEvaluator_BitIdentical(t *testing.T) {
	table := cubeTable(t, 4)
	src := interleaved()
	desc := BufferDescriptor{Length: 5, Stride: 5}

	want := make([]float32, 5*table.Len())
	if err := NewCPUEvaluator().EvalStencils(src, desc, want, desc, table); err != nil {
		t.Fatal(err)
	}

	for _, batch := range []int{1, 7, 64, 100000} {
		ev := NewParallelEvaluator(WithWorkers(4), WithBatchSize(batch))
		got := make([]float32, len(want))
		if err := ev.EvalStencils(src, desc, got, desc, table); err != nil {
			t.Fatal(err)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("batch %d: dst[%d] = %v, want %v", batch, i, got[i], want[i])
			}
		}
		ev.Close()
	}
}

func TestParallelEvaluator_Closed(t *testing.T) {
	table := cubeTable(t, 3)
	src := interleaved()
	desc := BufferDescriptor{Length: 5, Stride: 5}
	// One batch runs inline, several go through the pool.
	for _, batch := range []int{16, table.Len()} {
		ev := NewParallelEvaluator(WithWorkers(2), WithBatchSize(batch))
		ev.Close()
		dst := make([]float32, 5*table.Len())
		err := ev.EvalStencils(src, desc, dst, desc, table)
		if !errors.Is(err, ErrBackendUnavailable) {
			t.Errorf("batch %d: closed evaluator: error = %v, want ErrBackendUnavailable", batch, err)
		}
		for i, v := range dst {
			if v != 0 {
				t.Fatalf("batch %d: dst[%d] = %v written after Close", batch, i, v)
			}
		}
	}
}

func TestEvalStencils_SharedBuffer(t *testing.T) {
	table := cubeTable(t, 2)
	desc := BufferDescriptor{Length: 5, Stride: 5}
	want := make([]float32, 5*table.Len())
	if err := NewCPUEvaluator().EvalStencils(interleaved(), desc, want, desc, table); err != nil {
		t.Fatal(err)
	}

	t.Run("disjoint ranges", func(t *testing.T) {
		buf := make([]float32, 5*(8+table.Len()))
		copy(buf, interleaved())
		if err := NewCPUEvaluator().EvalStencils(buf[:40], desc, buf[40:], desc, table); err != nil {
			t.Fatal(err)
		}
		for i, v := range buf[40:] {
			if v != want[i] {
				t.Fatalf("dst[%d] = %v, want %v", i, v, want[i])
			}
		}
	})

	t.Run("disjoint windows", func(t *testing.T) {
		// Refine xy into the uv slots of the same records.
		n := max(8, table.Len())
		buf := make([]float32, 5*n)
		copy(buf, interleaved())
		xy := BufferDescriptor{Offset: 0, Length: 2, Stride: 5}
		uv := BufferDescriptor{Offset: 3, Length: 2, Stride: 5}
		if err := NewCPUEvaluator().EvalStencils(buf, xy, buf, uv, table); err != nil {
			t.Fatal(err)
		}
		for i := range table.Len() {
			got, w := buf[5*i+3:5*i+5], want[5*i:5*i+2]
			if got[0] != w[0] || got[1] != w[1] {
				t.Fatalf("record %d: uv = %v, want %v", i, got, w)
			}
		}
	})
}

func TestParallelEvaluator_Options(t *testing.T) {
	ev := NewParallelEvaluator(WithWorkers(3), WithBatchSize(-1))
	defer ev.Close()
	if ev.Workers() != 3 {
		t.Errorf("Workers() = %d, want 3", ev.Workers())
	}
	if ev.batchSize != defaultBatchSize {
		t.Errorf("batchSize = %d, want default %d", ev.batchSize, defaultBatchSize)
	}
}

// =============================================================================
// CPUVertexBuffer
// =============================================================================

func TestCPUVertexBuffer(t *testing.T) {
	b := NewCPUVertexBuffer(3, 4)
	if b.Elements() != 3 || b.Vertices() != 4 || len(b.Data()) != 12 {
		t.Fatalf("buffer = %d x %d, %d values", b.Elements(), b.Vertices(), len(b.Data()))
	}
	if err := b.UpdateData([]float32{1, 2, 3, 4, 5, 6}, 1, 2); err != nil {
		t.Fatal(err)
	}
	want := []float32{0, 0, 0, 1, 2, 3, 4, 5, 6, 0, 0, 0}
	for i, v := range b.Data() {
		if v != want[i] {
			t.Fatalf("Data()[%d] = %v, want %v", i, v, want[i])
		}
	}
	if err := b.UpdateData(make([]float32, 6), 3, 2); !errors.Is(err, far.ErrIndexOutOfBounds) {
		t.Errorf("overflow: error = %v, want ErrIndexOutOfBounds", err)
	}
	if err := b.UpdateData(make([]float32, 2), 0, 1); !errors.Is(err, far.ErrInvalidBufferSize) {
		t.Errorf("short src: error = %v, want ErrInvalidBufferSize", err)
	}
	if d := b.Descriptor(); d != (BufferDescriptor{Length: 3, Stride: 3}) {
		t.Errorf("Descriptor() = %+v", d)
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkCPUEvaluator(b *testing.B) {
	table := cubeTable(b, 5)
	src := interleaved()
	desc := BufferDescriptor{Length: 3, Stride: 5}
	dst := make([]float32, 5*table.Len())
	ev := NewCPUEvaluator()
	b.ReportAllocs()
	for b.Loop() {
		if err := ev.EvalStencils(src, desc, dst, desc, table); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParallelEvaluator(b *testing.B) {
	table := cubeTable(b, 5)
	src := interleaved()
	desc := BufferDescriptor{Length: 3, Stride: 5}
	dst := make([]float32, 5*table.Len())
	ev := NewParallelEvaluator()
	defer ev.Close()
	b.ReportAllocs()
	for b.Loop() {
		if err := ev.EvalStencils(src, desc, dst, desc, table); err != nil {
			b.Fatal(err)
		}
	}
}
