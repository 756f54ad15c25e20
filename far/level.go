// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package far

import "github.com/gogpu/subdiv/sdc"

type vertexTag struct {
	rule        sdc.Rule
	boundary    bool
	nonManifold bool
	irregular   bool
	incomplete  bool
}

type edgeTag struct {
	boundary    bool
	nonManifold bool
}

// Level is the topology of one refinement depth. It is built once by the
// refiner and never modified afterwards; all accessors are safe for
// concurrent use. Slices returned by accessors alias internal storage and
// must not be modified.
type Level struct {
	depth     int
	vertCount int

	faceVerts relation
	faceEdges relation // edge i of a face joins corner i and corner i+1
	edgeVerts [][2]int
	edgeFaces relation

	// Around a manifold vertex faces and edges are ordered counter-clockwise:
	// edge i leaves the vertex along face i, edge i+1 arrives along face i.
	vertFaces      relation
	vertFaceCorner relation // corner index of the vertex within each face
	vertEdges      relation

	edgeSharpness []float32
	vertSharpness []float32
	edgeTags      []edgeTag
	vertTags      []vertexTag
	faceHoles     []bool

	fvar []*fvarLevel

	parent *refinement // produced this level; nil at depth 0
	child  *refinement // refines this level; nil at the deepest level
}

// Depth returns the refinement depth, 0 for the base mesh.
func (l *Level) Depth() int { return l.depth }

// VertexCount returns the number of vertices.
func (l *Level) VertexCount() int { return l.vertCount }

// FaceCount returns the number of faces.
func (l *Level) FaceCount() int { return l.faceVerts.rowCount() }

// EdgeCount returns the number of edges.
func (l *Level) EdgeCount() int { return len(l.edgeVerts) }

// FaceVertexCount returns the total number of face corners.
func (l *Level) FaceVertexCount() int { return len(l.faceVerts.items) }

// FaceVertices returns the vertices of face f in counter-clockwise order.
func (l *Level) FaceVertices(f int) []int { return l.faceVerts.row(f) }

// FaceEdges returns the edges of face f; edge i joins corners i and i+1.
func (l *Level) FaceEdges(f int) []int { return l.faceEdges.row(f) }

// EdgeVertices returns the two vertices of edge e.
func (l *Level) EdgeVertices(e int) [2]int { return l.edgeVerts[e] }

// EdgeFaces returns the faces incident to edge e.
func (l *Level) EdgeFaces(e int) []int { return l.edgeFaces.row(e) }

// VertexFaces returns the faces incident to vertex v.
func (l *Level) VertexFaces(v int) []int { return l.vertFaces.row(v) }

// VertexEdges returns the edges incident to vertex v.
func (l *Level) VertexEdges(v int) []int { return l.vertEdges.row(v) }

// Valence returns the number of edges incident to vertex v.
func (l *Level) Valence(v int) int { return l.vertEdges.count(v) }

// FindEdge returns the edge joining v0 and v1.
func (l *Level) FindEdge(v0, v1 int) (int, bool) {
	if v0 < 0 || v0 >= l.vertCount || v1 < 0 || v1 >= l.vertCount {
		return -1, false
	}
	for _, e := range l.vertEdges.row(v0) {
		ev := l.edgeVerts[e]
		if (ev[0] == v0 && ev[1] == v1) || (ev[0] == v1 && ev[1] == v0) {
			return e, true
		}
	}
	return -1, false
}

// otherVertex returns the end of edge e that is not v.
func (l *Level) otherVertex(e, v int) int {
	ev := l.edgeVerts[e]
	if ev[0] == v {
		return ev[1]
	}
	return ev[0]
}

// EdgeSharpness returns the crease sharpness of edge e.
func (l *Level) EdgeSharpness(e int) float32 { return l.edgeSharpness[e] }

// VertexSharpness returns the corner sharpness of vertex v.
func (l *Level) VertexSharpness(v int) float32 { return l.vertSharpness[v] }

// VertexRule returns the subdivision rule of vertex v.
func (l *Level) VertexRule(v int) sdc.Rule { return l.vertTags[v].rule }

// IsEdgeBoundary reports whether edge e lies on the mesh boundary.
func (l *Level) IsEdgeBoundary(e int) bool { return l.edgeTags[e].boundary }

// IsEdgeNonManifold reports whether edge e has more than two faces or
// inconsistent winding.
func (l *Level) IsEdgeNonManifold(e int) bool { return l.edgeTags[e].nonManifold }

// IsVertexBoundary reports whether vertex v lies on the mesh boundary.
func (l *Level) IsVertexBoundary(v int) bool { return l.vertTags[v].boundary }

// IsVertexNonManifold reports whether the faces around v do not form a
// single fan.
func (l *Level) IsVertexNonManifold(v int) bool { return l.vertTags[v].nonManifold }

// IsVertexIrregular reports whether v has an extraordinary valence for
// the scheme.
func (l *Level) IsVertexIrregular(v int) bool { return l.vertTags[v].irregular }

// IsVertexComplete reports whether the full one-ring of v exists in this
// level. Only sparse (adaptive) levels have incomplete vertices.
func (l *Level) IsVertexComplete(v int) bool { return !l.vertTags[v].incomplete }

// IsFaceHole reports whether face f is a hole.
func (l *Level) IsFaceHole(f int) bool { return l.faceHoles[f] }

// FVarChannelCount returns the number of face-varying channels.
func (l *Level) FVarChannelCount() int { return len(l.fvar) }

// FVarValueCount returns the number of values in channel ch.
func (l *Level) FVarValueCount(ch int) int { return l.fvar[ch].valueCount }

// FaceFVarValues returns the channel ch values of the corners of face f.
func (l *Level) FaceFVarValues(f, ch int) []int {
	lo, hi := l.faceVerts.offsets[f], l.faceVerts.offsets[f+1]
	return l.fvar[ch].faceValues[lo:hi:hi]
}

// Component kinds a child vertex can originate from.
const (
	ParentFace = iota
	ParentEdge
	ParentVertex
)

// FaceChildVertex returns the child vertex of face f in the next level,
// or -1 when f was not refined or the scheme adds no face points.
func (l *Level) FaceChildVertex(f int) int {
	if l.child == nil {
		return -1
	}
	return l.child.faceChildVert[f]
}

// EdgeChildVertex returns the child vertex of edge e in the next level,
// or -1 when e was not refined.
func (l *Level) EdgeChildVertex(e int) int {
	if l.child == nil {
		return -1
	}
	return l.child.edgeChildVert[e]
}

// VertexChildVertex returns the child vertex of v in the next level,
// or -1 when v was not refined.
func (l *Level) VertexChildVertex(v int) int {
	if l.child == nil {
		return -1
	}
	return l.child.vertChildVert[v]
}

// FaceChildFaces returns the faces of the next level created from f.
func (l *Level) FaceChildFaces(f int) []int {
	if l.child == nil {
		return nil
	}
	return l.child.faceChildFaces.row(f)
}

// FaceChildEdges returns the edges of the next level interior to f.
func (l *Level) FaceChildEdges(f int) []int {
	if l.child == nil {
		return nil
	}
	return l.child.faceChildEdges.row(f)
}

// EdgeChildEdges returns the two halves of edge e in the next level;
// -1 marks a half that was not created.
func (l *Level) EdgeChildEdges(e int) [2]int {
	if l.child == nil {
		return [2]int{-1, -1}
	}
	return l.child.edgeChildEdges[e]
}

// FaceParentFace returns the face of the previous level that face f was
// created from, or -1 at depth 0.
func (l *Level) FaceParentFace(f int) int {
	if l.parent == nil {
		return -1
	}
	return l.parent.childFaceParent[f]
}

// VertexParent returns the kind (ParentFace, ParentEdge or ParentVertex)
// and index of the component vertex v was created from. At depth 0 it
// returns (-1, -1).
func (l *Level) VertexParent(v int) (kind, index int) {
	if l.parent == nil {
		return -1, -1
	}
	return l.parent.childVertKind[v], l.parent.childVertParent[v]
}
