// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package far

import (
	"math"
	"testing"

	"github.com/gogpu/subdiv/sdc"
)

// cubeDescriptor is a closed cube of six quads, all vertices of valence 3.
func cubeDescriptor() TopologyDescriptor {
	return TopologyDescriptor{
		VertexCount:      8,
		FaceVertexCounts: []int{4, 4, 4, 4, 4, 4},
		FaceVertexIndices: []int{
			0, 1, 3, 2,
			2, 3, 5, 4,
			4, 5, 7, 6,
			6, 7, 1, 0,
			1, 7, 5, 3,
			6, 0, 2, 4,
		},
	}
}

var cubePositions = []float32{
	-0.5, -0.5, 0.5,
	0.5, -0.5, 0.5,
	-0.5, 0.5, 0.5,
	0.5, 0.5, 0.5,
	-0.5, 0.5, -0.5,
	0.5, 0.5, -0.5,
	-0.5, -0.5, -0.5,
	0.5, -0.5, -0.5,
}

// tetraDescriptor is a closed tetrahedron of four triangles.
func tetraDescriptor() TopologyDescriptor {
	return TopologyDescriptor{
		VertexCount:       4,
		FaceVertexCounts:  []int{3, 3, 3, 3},
		FaceVertexIndices: []int{0, 1, 2, 0, 3, 1, 0, 2, 3, 1, 3, 2},
	}
}

var tetraPositions = []float32{
	0, 0, 1,
	0.94, 0, -0.33,
	-0.47, 0.82, -0.33,
	-0.47, -0.82, -0.33,
}

// gridDescriptor is an n x n grid of quads over (n+1)² vertices; vertex
// (x, y) has index y*(n+1)+x.
func gridDescriptor(n int) TopologyDescriptor {
	d := TopologyDescriptor{VertexCount: (n + 1) * (n + 1)}
	for y := range n {
		for x := range n {
			v := y*(n+1) + x
			d.FaceVertexCounts = append(d.FaceVertexCounts, 4)
			d.FaceVertexIndices = append(d.FaceVertexIndices, v, v+1, v+n+2, v+n+1)
		}
	}
	return d
}

func gridPositions(n int) []float32 {
	var p []float32
	for y := range n + 1 {
		for x := range n + 1 {
			p = append(p, float32(x), float32(y), float32((x*y)%3))
		}
	}
	return p
}

func catmarkOptions(boundary sdc.BoundaryInterpolation) sdc.Options {
	opts := sdc.DefaultOptions()
	opts.VtxBoundaryInterpolation = boundary
	return opts
}

func schemeOptions(scheme sdc.Scheme) sdc.Options {
	opts := sdc.DefaultOptions()
	opts.Scheme = scheme
	opts.VtxBoundaryInterpolation = sdc.BoundaryEdgeAndCorner
	return opts
}

func mustRefiner(t testing.TB, desc TopologyDescriptor, opts sdc.Options) *TopologyRefiner {
	t.Helper()
	r, err := NewTopologyRefiner(desc, opts)
	if err != nil {
		t.Fatalf("NewTopologyRefiner() error = %v", err)
	}
	return r
}

func mustUniform(t testing.TB, desc TopologyDescriptor, opts sdc.Options, levels int) *TopologyRefiner {
	t.Helper()
	r := mustRefiner(t, desc, opts)
	if err := r.RefineUniform(UniformOptions{RefinementLevel: levels, OrderVerticesFromFacesFirst: true}); err != nil {
		t.Fatalf("RefineUniform() error = %v", err)
	}
	return r
}

func approxEqual(a, b []float32, eps float64) (int, bool) {
	if len(a) != len(b) {
		return -1, false
	}
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > eps {
			return i, false
		}
	}
	return 0, true
}
