// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package far

import "github.com/gogpu/subdiv/sdc"

// newLevelTopology builds the adjacency of a level from its faces.
// Boundary and non-manifold tags reflect only the faces given; callers
// building sparse levels replace them with inherited tags.
func newLevelTopology(depth, vertCount int, faceCounts, faceVerts []int) *Level {
	l := &Level{
		depth:     depth,
		vertCount: vertCount,
		faceVerts: newRelation(len(faceCounts), len(faceVerts)),
		faceEdges: newRelation(len(faceCounts), len(faceVerts)),
	}

	edgeIndex := make(map[[2]int]int, len(faceVerts))
	offset := 0
	for _, n := range faceCounts {
		verts := faceVerts[offset : offset+n]
		l.faceVerts.appendRow(verts...)
		for i := range verts {
			a, b := verts[i], verts[(i+1)%n]
			key := edgeKey(a, b)
			e, ok := edgeIndex[key]
			if !ok {
				e = len(l.edgeVerts)
				edgeIndex[key] = e
				l.edgeVerts = append(l.edgeVerts, [2]int{a, b})
			}
			l.faceEdges.items = append(l.faceEdges.items, e)
		}
		l.faceEdges.offsets = append(l.faceEdges.offsets, len(l.faceEdges.items))
		offset += n
	}

	l.buildEdgeFaces()
	l.buildVertexNeighborhoods()

	l.edgeSharpness = make([]float32, l.EdgeCount())
	l.vertSharpness = make([]float32, vertCount)
	l.faceHoles = make([]bool, l.FaceCount())
	return l
}

func (l *Level) buildEdgeFaces() {
	counts := make([]int, l.EdgeCount())
	for _, e := range l.faceEdges.items {
		counts[e]++
	}
	l.edgeFaces = fromCounts(counts)
	fill := make([]int, l.EdgeCount())
	for f := range l.FaceCount() {
		for _, e := range l.faceEdges.row(f) {
			l.edgeFaces.items[l.edgeFaces.offsets[e]+fill[e]] = f
			fill[e]++
		}
	}

	l.edgeTags = make([]edgeTag, l.EdgeCount())
	for e := range l.edgeTags {
		faces := l.edgeFaces.row(e)
		switch {
		case len(faces) == 1:
			l.edgeTags[e].boundary = true
		case len(faces) > 2:
			l.edgeTags[e].nonManifold = true
		case len(faces) == 2:
			if l.edgeForward(faces[0], e) == l.edgeForward(faces[1], e) {
				l.edgeTags[e].nonManifold = true
			}
		}
	}
}

// edgeForward reports whether face f traverses edge e from its first to
// its second vertex.
func (l *Level) edgeForward(f, e int) bool {
	verts := l.faceVerts.row(f)
	for i, fe := range l.faceEdges.row(f) {
		if fe == e {
			return verts[i] == l.edgeVerts[e][0]
		}
	}
	return false
}

// cornerOf returns the corner index of vertex v in face f, or -1.
func (l *Level) cornerOf(f, v int) int {
	for i, fv := range l.faceVerts.row(f) {
		if fv == v {
			return i
		}
	}
	return -1
}

func (l *Level) buildVertexNeighborhoods() {
	counts := make([]int, l.vertCount)
	for _, v := range l.faceVerts.items {
		counts[v]++
	}
	unordered := fromCounts(counts)
	corners := fromCounts(counts)
	fill := make([]int, l.vertCount)
	for f := range l.FaceCount() {
		for k, v := range l.faceVerts.row(f) {
			at := unordered.offsets[v] + fill[v]
			unordered.items[at] = f
			corners.items[at] = k
			fill[v]++
		}
	}

	l.vertTags = make([]vertexTag, l.vertCount)
	l.vertFaces = newRelation(l.vertCount, len(unordered.items))
	l.vertFaceCorner = newRelation(l.vertCount, len(unordered.items))
	l.vertEdges = newRelation(l.vertCount, len(unordered.items)+l.vertCount)

	var w fanWalker
	for v := range l.vertCount {
		faces, cs := unordered.row(v), corners.row(v)
		if len(faces) == 0 {
			l.vertTags[v].nonManifold = true
			l.vertFaces.appendRow()
			l.vertFaceCorner.appendRow()
			l.vertEdges.appendRow()
			continue
		}
		if w.walk(l, faces, cs) {
			l.vertTags[v].boundary = w.boundary
		} else {
			l.vertTags[v].nonManifold = true
			w.unordered(l, faces, cs)
			for _, e := range w.edges {
				if l.edgeTags[e].boundary {
					l.vertTags[v].boundary = true
				}
			}
		}
		l.vertFaces.appendRow(w.faces...)
		l.vertFaceCorner.appendRow(w.corners...)
		l.vertEdges.appendRow(w.edges...)
	}
}

// fanWalker orders the faces and edges around one vertex.
type fanWalker struct {
	faces    []int
	corners  []int
	edges    []int
	boundary bool
}

func (w *fanWalker) reset() {
	w.faces = w.faces[:0]
	w.corners = w.corners[:0]
	w.edges = w.edges[:0]
	w.boundary = false
}

// walk orders the fan counter-clockwise. It returns false when the faces
// do not form a single consistently wound fan.
func (w *fanWalker) walk(l *Level, faces, corners []int) bool {
	w.reset()

	start := 0
	starts := 0
	for i, f := range faces {
		out := l.faceEdges.row(f)[corners[i]]
		if l.edgeFaces.count(out) == 1 {
			start = i
			starts++
		}
	}
	if starts > 1 {
		return false
	}

	f, k := faces[start], corners[start]
	for {
		fe := l.faceEdges.row(f)
		n := len(fe)
		w.faces = append(w.faces, f)
		w.corners = append(w.corners, k)
		w.edges = append(w.edges, fe[k])
		if len(w.faces) > len(faces) {
			return false
		}

		in := fe[(k+n-1)%n]
		ef := l.edgeFaces.row(in)
		if len(ef) == 1 {
			w.edges = append(w.edges, in)
			w.boundary = true
			break
		}
		if len(ef) != 2 || l.edgeTags[in].nonManifold {
			return false
		}
		next := ef[0]
		if next == f {
			next = ef[1]
		}
		if next == faces[start] {
			break
		}
		nk := l.cornerOf(next, l.faceVerts.row(f)[k])
		if nk < 0 || l.faceEdges.row(next)[nk] != in {
			return false
		}
		f, k = next, nk
	}
	return len(w.faces) == len(faces)
}

// unordered fills the walker with the fan in face order, used for
// non-manifold vertices.
func (w *fanWalker) unordered(l *Level, faces, corners []int) {
	w.reset()
	w.faces = append(w.faces, faces...)
	w.corners = append(w.corners, corners...)
	for i, f := range faces {
		fe := l.faceEdges.row(f)
		n := len(fe)
		for _, e := range [2]int{fe[corners[i]], fe[(corners[i]+n-1)%n]} {
			seen := false
			for _, x := range w.edges {
				if x == e {
					seen = true
					break
				}
			}
			if !seen {
				w.edges = append(w.edges, e)
			}
		}
	}
}

// computeRules derives vertex rules and irregularity from sharpness and
// topology. It runs once per level after sharpness is final.
func (l *Level) computeRules(scheme sdc.Scheme, crease sdc.Crease) {
	var sharp []float32
	for v := range l.vertCount {
		sharp = sharp[:0]
		for _, e := range l.vertEdges.row(v) {
			sharp = append(sharp, l.edgeSharpness[e])
		}
		tag := &l.vertTags[v]
		tag.rule = crease.DetermineVertexVertexRule(l.vertSharpness[v], sharp)

		valence := len(sharp)
		switch {
		case tag.nonManifold:
			tag.irregular = true
		case tag.boundary:
			corner := l.vertFaces.count(v) == 1 && tag.rule == sdc.RuleCorner
			tag.irregular = valence != scheme.RegularBoundaryValence() && !corner
		default:
			tag.irregular = valence != scheme.RegularValence()
		}
	}
}
