// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package far

// Crease tags the mesh edge between V0 and V1 with a sharpness.
// Sharpness 10 or more is infinitely sharp.
type Crease struct {
	V0, V1    int
	Sharpness float32
}

// Corner tags a vertex with a sharpness.
type Corner struct {
	Vertex    int
	Sharpness float32
}

// FVarChannel is one face-varying channel: ValueIndices holds one value
// index per face corner, parallel to FaceVertexIndices.
type FVarChannel struct {
	ValueCount   int
	ValueIndices []int
}

// TopologyDescriptor is the caller's description of a base mesh.
// It is read once by NewTopologyRefiner and not retained.
type TopologyDescriptor struct {
	VertexCount       int
	FaceVertexCounts  []int
	FaceVertexIndices []int

	Creases      []Crease
	Corners      []Corner
	Holes        []int
	FVarChannels []FVarChannel

	// LeftHanded reverses the winding of every face on input.
	LeftHanded bool
}

// Validate checks the descriptor invariants and returns an error wrapping
// ErrInvalidTopology naming the first violation.
func (d *TopologyDescriptor) Validate() error {
	if d.VertexCount < 0 {
		return topologyError("negative vertex count %d", d.VertexCount)
	}

	total := 0
	for f, n := range d.FaceVertexCounts {
		if n < 3 {
			return topologyError("face %d has %d vertices, want at least 3", f, n)
		}
		total += n
	}
	if total != len(d.FaceVertexIndices) {
		return topologyError("sum of face vertex counts is %d, but %d face vertex indices given",
			total, len(d.FaceVertexIndices))
	}

	for i, v := range d.FaceVertexIndices {
		if v < 0 || v >= d.VertexCount {
			return topologyError("face vertex index %d (position %d) out of range [0, %d)", v, i, d.VertexCount)
		}
	}

	offset := 0
	for f, n := range d.FaceVertexCounts {
		verts := d.FaceVertexIndices[offset : offset+n]
		for i := range verts {
			for j := i + 1; j < len(verts); j++ {
				if verts[i] == verts[j] {
					return topologyError("face %d repeats vertex %d", f, verts[i])
				}
			}
		}
		offset += n
	}

	if len(d.Creases) > 0 {
		edges := d.edgeSet()
		for i, c := range d.Creases {
			if c.Sharpness < 0 {
				return topologyError("crease %d has negative sharpness %v", i, c.Sharpness)
			}
			if _, ok := edges[edgeKey(c.V0, c.V1)]; !ok {
				return topologyError("crease %d references (%d, %d), which is not a mesh edge", i, c.V0, c.V1)
			}
		}
	}

	for i, c := range d.Corners {
		if c.Vertex < 0 || c.Vertex >= d.VertexCount {
			return topologyError("corner %d references vertex %d out of range [0, %d)", i, c.Vertex, d.VertexCount)
		}
		if c.Sharpness < 0 {
			return topologyError("corner %d has negative sharpness %v", i, c.Sharpness)
		}
	}

	for i, h := range d.Holes {
		if h < 0 || h >= len(d.FaceVertexCounts) {
			return topologyError("hole %d references face %d out of range [0, %d)", i, h, len(d.FaceVertexCounts))
		}
	}

	for ch, fv := range d.FVarChannels {
		if len(fv.ValueIndices) != len(d.FaceVertexIndices) {
			return topologyError("fvar channel %d has %d value indices, want %d",
				ch, len(fv.ValueIndices), len(d.FaceVertexIndices))
		}
		for i, v := range fv.ValueIndices {
			if v < 0 || v >= fv.ValueCount {
				return topologyError("fvar channel %d value index %d (position %d) out of range [0, %d)",
					ch, v, i, fv.ValueCount)
			}
		}
	}
	return nil
}

func (d *TopologyDescriptor) edgeSet() map[[2]int]struct{} {
	edges := make(map[[2]int]struct{}, len(d.FaceVertexIndices))
	offset := 0
	for _, n := range d.FaceVertexCounts {
		verts := d.FaceVertexIndices[offset : offset+n]
		for i := range verts {
			edges[edgeKey(verts[i], verts[(i+1)%n])] = struct{}{}
		}
		offset += n
	}
	return edges
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}
