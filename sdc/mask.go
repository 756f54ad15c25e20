// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sdc

// Mask holds the weights that combine the neighborhood of one parent
// component into a child vertex.
//
// For a face mask VertexWeights has one weight per face vertex. For an edge
// mask VertexWeights holds the two end vertices and FaceWeights one weight
// per incident face. For a vertex mask VertexWeights holds the vertex
// itself, EdgeWeights one weight per incident edge (applied to the far end
// of the edge) and FaceWeights one weight per incident face.
type Mask struct {
	VertexWeights []float64
	EdgeWeights   []float64
	FaceWeights   []float64

	// FaceWeightsForCenters is true when face weights apply to the face
	// centroid. Otherwise they apply to the vertex of the incident triangle
	// opposite the edge (Loop).
	FaceWeightsForCenters bool
}

// Sum returns the total of all weights.
func (m *Mask) Sum() float64 {
	var s float64
	for _, w := range m.VertexWeights {
		s += w
	}
	for _, w := range m.EdgeWeights {
		s += w
	}
	for _, w := range m.FaceWeights {
		s += w
	}
	return s
}

func newMask(vertices, edges, faces int) Mask {
	return Mask{
		VertexWeights: make([]float64, vertices),
		EdgeWeights:   make([]float64, edges),
		FaceWeights:   make([]float64, faces),
	}
}

// blend combines m = pWeight*m + (1-pWeight)*child in place. Both masks
// must have the same shape.
func (m *Mask) blend(child *Mask, pWeight float64) {
	cWeight := 1 - pWeight
	for i := range m.VertexWeights {
		m.VertexWeights[i] = pWeight*m.VertexWeights[i] + cWeight*child.VertexWeights[i]
	}
	for i := range m.EdgeWeights {
		m.EdgeWeights[i] = pWeight*m.EdgeWeights[i] + cWeight*child.EdgeWeights[i]
	}
	for i := range m.FaceWeights {
		m.FaceWeights[i] = pWeight*m.FaceWeights[i] + cWeight*child.FaceWeights[i]
	}
	m.FaceWeightsForCenters = m.FaceWeightsForCenters || child.FaceWeightsForCenters
}

// EdgeNeighborhood describes an edge for mask computation.
type EdgeNeighborhood struct {
	Sharpness float32
	// ChildSharpness is the sharpness of the two child edges.
	ChildSharpness [2]float32
	// FaceSizes holds the vertex count of every incident face.
	FaceSizes []int
}

// VertexNeighborhood describes a vertex for mask computation. Edge slices
// are indexed like the vertex's incident edges.
type VertexNeighborhood struct {
	Sharpness          float32
	ChildSharpness     float32
	EdgeSharpness      []float32
	ChildEdgeSharpness []float32
	FaceCount          int
}
