// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package far

import "github.com/gogpu/subdiv/sdc"

// refinement links a parent level to the child level built from it and
// records, for every child vertex, the sparse row of parent vertices (or
// fvar values) that reproduces it.
type refinement struct {
	parent *Level
	child  *Level
	rules  sdc.SchemeRules

	faceChildVert  []int
	edgeChildVert  []int
	vertChildVert  []int
	faceChildFaces relation
	faceChildEdges relation
	edgeChildEdges [][2]int

	childVertKind   []int
	childVertParent []int
	childFaceParent []int

	vertexRows  rowTable
	varyingRows rowTable
	fvarRows    []rowTable
}

// refineLevel builds the next level from parent. selected marks the
// faces to refine; nil refines every face.
func refineLevel(parent *Level, rules sdc.SchemeRules, selected []bool, facesFirst bool) *refinement {
	r := &refinement{parent: parent, rules: rules}
	r.markChildVertices(selected, facesFirst)
	childCounts, childVerts := r.buildChildFaces(selected)

	r.child = newLevelTopology(parent.depth+1, len(r.childVertKind), childCounts, childVerts)
	r.child.parent = r
	parent.child = r

	r.linkChildEdges()
	r.inheritTags(selected)
	r.child.computeRules(rules.Options().Scheme, rules.Crease())

	r.buildVertexRows()
	r.buildVaryingRows()
	for ch := range parent.fvar {
		r.refineFVarChannel(ch)
	}
	return r
}

// markChildVertices assigns child vertex indices to refined components.
func (r *refinement) markChildVertices(selected []bool, facesFirst bool) {
	p := r.parent
	scheme := r.rules.Options().Scheme

	faceRefined := make([]bool, p.FaceCount())
	edgeRefined := make([]bool, p.EdgeCount())
	vertRefined := make([]bool, p.vertCount)
	for f := range faceRefined {
		if selected != nil && !selected[f] {
			continue
		}
		faceRefined[f] = true
		for _, e := range p.faceEdges.row(f) {
			edgeRefined[e] = true
		}
		for _, v := range p.faceVerts.row(f) {
			vertRefined[v] = true
		}
	}

	r.faceChildVert = filled(p.FaceCount(), -1)
	r.edgeChildVert = filled(p.EdgeCount(), -1)
	r.vertChildVert = filled(p.vertCount, -1)

	addFaces := func() {
		if !scheme.HasFacePoints() {
			return
		}
		for f, ok := range faceRefined {
			if ok {
				r.faceChildVert[f] = r.appendChildVertex(ParentFace, f)
			}
		}
	}
	addEdges := func() {
		for e, ok := range edgeRefined {
			if ok {
				r.edgeChildVert[e] = r.appendChildVertex(ParentEdge, e)
			}
		}
	}
	addVerts := func() {
		for v, ok := range vertRefined {
			if ok {
				r.vertChildVert[v] = r.appendChildVertex(ParentVertex, v)
			}
		}
	}

	if facesFirst {
		addFaces()
		addEdges()
		addVerts()
	} else {
		addVerts()
		addFaces()
		addEdges()
	}
}

func (r *refinement) appendChildVertex(kind, parent int) int {
	r.childVertKind = append(r.childVertKind, kind)
	r.childVertParent = append(r.childVertParent, parent)
	return len(r.childVertKind) - 1
}

// buildChildFaces splits every selected face. Quad schemes turn an n-gon
// into n quads around its face point; Loop turns a triangle into four.
func (r *refinement) buildChildFaces(selected []bool) (counts, verts []int) {
	p := r.parent
	loop := r.rules.Options().Scheme == sdc.Loop
	r.faceChildFaces = newRelation(p.FaceCount(), len(p.faceVerts.items))

	var children []int
	for f := range p.FaceCount() {
		children = children[:0]
		if selected == nil || selected[f] {
			fv := p.faceVerts.row(f)
			fe := p.faceEdges.row(f)
			n := len(fv)
			if loop {
				v0, v1, v2 := r.vertChildVert[fv[0]], r.vertChildVert[fv[1]], r.vertChildVert[fv[2]]
				e0, e1, e2 := r.edgeChildVert[fe[0]], r.edgeChildVert[fe[1]], r.edgeChildVert[fe[2]]
				for _, tri := range [4][3]int{{v0, e0, e2}, {e0, v1, e1}, {e2, e1, v2}, {e0, e1, e2}} {
					children = append(children, len(counts))
					counts = append(counts, 3)
					verts = append(verts, tri[:]...)
					r.childFaceParent = append(r.childFaceParent, f)
				}
			} else {
				center := r.faceChildVert[f]
				for i := range n {
					children = append(children, len(counts))
					counts = append(counts, 4)
					verts = append(verts,
						r.vertChildVert[fv[i]],
						r.edgeChildVert[fe[i]],
						center,
						r.edgeChildVert[fe[(i+n-1)%n]])
					r.childFaceParent = append(r.childFaceParent, f)
				}
			}
		}
		r.faceChildFaces.appendRow(children...)
	}
	return counts, verts
}

// linkChildEdges records which child edges split parent edges and which
// lie inside parent faces.
func (r *refinement) linkChildEdges() {
	p, c := r.parent, r.child
	loop := r.rules.Options().Scheme == sdc.Loop

	r.edgeChildEdges = make([][2]int, p.EdgeCount())
	for e := range r.edgeChildEdges {
		r.edgeChildEdges[e] = [2]int{-1, -1}
		mid := r.edgeChildVert[e]
		if mid < 0 {
			continue
		}
		for i, v := range p.edgeVerts[e] {
			if cv := r.vertChildVert[v]; cv >= 0 {
				if ce, ok := c.FindEdge(cv, mid); ok {
					r.edgeChildEdges[e][i] = ce
				}
			}
		}
	}

	r.faceChildEdges = newRelation(p.FaceCount(), len(p.faceVerts.items))
	var edges []int
	for f := range p.FaceCount() {
		edges = edges[:0]
		if r.faceChildFaces.count(f) > 0 {
			fe := p.faceEdges.row(f)
			n := len(fe)
			for i := range n {
				a := r.faceChildVert[f]
				if loop {
					a = r.edgeChildVert[fe[(i+1)%n]]
				}
				if ce, ok := c.FindEdge(a, r.edgeChildVert[fe[i]]); ok {
					edges = append(edges, ce)
				}
			}
		}
		r.faceChildEdges.appendRow(edges...)
	}
}

// inheritTags carries boundary, non-manifold, sharpness and hole tags from
// the parent, and marks child vertices whose neighborhood was only
// partially refined.
func (r *refinement) inheritTags(selected []bool) {
	p, c := r.parent, r.child
	crease := r.rules.Crease()

	for i := range c.edgeTags {
		c.edgeTags[i] = edgeTag{}
	}
	var incident []float32
	for e, halves := range r.edgeChildEdges {
		for i, ce := range halves {
			if ce < 0 {
				continue
			}
			incident = p.incidentSharpness(p.edgeVerts[e][i], incident)
			c.edgeSharpness[ce] = crease.SubdivideEdgeSharpnessAtVertex(p.edgeSharpness[e], incident)
			c.edgeTags[ce] = p.edgeTags[e]
		}
	}

	refined := func(f int) bool { return selected == nil || selected[f] }
	for cv, kind := range r.childVertKind {
		pi := r.childVertParent[cv]
		tag := &c.vertTags[cv]
		*tag = vertexTag{}
		switch kind {
		case ParentVertex:
			tag.boundary = p.vertTags[pi].boundary
			tag.nonManifold = p.vertTags[pi].nonManifold
			c.vertSharpness[cv] = crease.SubdivideVertexSharpness(p.vertSharpness[pi])
			for _, f := range p.vertFaces.row(pi) {
				if !refined(f) {
					tag.incomplete = true
				}
			}
		case ParentEdge:
			tag.boundary = p.edgeTags[pi].boundary
			tag.nonManifold = p.edgeTags[pi].nonManifold
			for _, f := range p.edgeFaces.row(pi) {
				if !refined(f) {
					tag.incomplete = true
				}
			}
		}
	}

	for cf, pf := range r.childFaceParent {
		c.faceHoles[cf] = p.faceHoles[pf]
	}
}

// incidentSharpness returns the sharpness of every edge around v.
func (l *Level) incidentSharpness(v int, dst []float32) []float32 {
	dst = dst[:0]
	for _, e := range l.vertEdges.row(v) {
		dst = append(dst, l.edgeSharpness[e])
	}
	return dst
}

func (r *refinement) edgeNeighborhood(e int, incident []float32) (sdc.EdgeNeighborhood, []float32) {
	p := r.parent
	crease := r.rules.Crease()
	nb := sdc.EdgeNeighborhood{Sharpness: p.edgeSharpness[e]}
	for i, v := range p.edgeVerts[e] {
		incident = p.incidentSharpness(v, incident)
		nb.ChildSharpness[i] = crease.SubdivideEdgeSharpnessAtVertex(nb.Sharpness, incident)
	}
	for _, f := range p.edgeFaces.row(e) {
		nb.FaceSizes = append(nb.FaceSizes, p.faceVerts.count(f))
	}
	return nb, incident
}

func (r *refinement) vertexNeighborhood(v int) sdc.VertexNeighborhood {
	p := r.parent
	crease := r.rules.Crease()
	edges := p.incidentSharpness(v, nil)
	return sdc.VertexNeighborhood{
		Sharpness:          p.vertSharpness[v],
		ChildSharpness:     crease.SubdivideVertexSharpness(p.vertSharpness[v]),
		EdgeSharpness:      edges,
		ChildEdgeSharpness: crease.SubdivideEdgeSharpnessesAroundVertex(edges, nil),
		FaceCount:          p.vertFaces.count(v),
	}
}

// buildVertexRows records the scheme mask of every child vertex as a row
// over parent vertices. Face-center weights are expanded onto the face's
// vertices so rows never reference other child vertices.
func (r *refinement) buildVertexRows() {
	p := r.parent
	r.vertexRows = newRowTable(len(r.childVertKind))
	var b rowBuilder
	var incident []float32
	for cv, kind := range r.childVertKind {
		b.reset()
		pi := r.childVertParent[cv]
		switch kind {
		case ParentFace:
			m := r.rules.FaceVertexMask(p.faceVerts.count(pi))
			for i, v := range p.faceVerts.row(pi) {
				b.add(v, m.VertexWeights[i])
			}
		case ParentEdge:
			var nb sdc.EdgeNeighborhood
			nb, incident = r.edgeNeighborhood(pi, incident)
			m := r.rules.EdgeVertexMask(nb, sdc.RuleUnknown, sdc.RuleUnknown)
			ev := p.edgeVerts[pi]
			b.add(ev[0], m.VertexWeights[0])
			b.add(ev[1], m.VertexWeights[1])
			for j, f := range p.edgeFaces.row(pi) {
				if m.FaceWeightsForCenters {
					p.addFaceCenter(&b, f, m.FaceWeights[j])
				} else if m.FaceWeights[j] != 0 {
					b.add(p.oppositeVertex(f, ev), m.FaceWeights[j])
				}
			}
		case ParentVertex:
			m := r.rules.VertexVertexMask(r.vertexNeighborhood(pi), sdc.RuleUnknown, sdc.RuleUnknown)
			b.add(pi, m.VertexWeights[0])
			for i, e := range p.vertEdges.row(pi) {
				b.add(p.otherVertex(e, pi), m.EdgeWeights[i])
			}
			if m.FaceWeightsForCenters {
				for j, f := range p.vertFaces.row(pi) {
					p.addFaceCenter(&b, f, m.FaceWeights[j])
				}
			}
		}
		r.vertexRows.appendRow(&b)
	}
}

// buildVaryingRows records linear interpolation rows.
func (r *refinement) buildVaryingRows() {
	p := r.parent
	r.varyingRows = newRowTable(len(r.childVertKind))
	var b rowBuilder
	for cv, kind := range r.childVertKind {
		b.reset()
		pi := r.childVertParent[cv]
		switch kind {
		case ParentFace:
			p.addFaceCenter(&b, pi, 1)
		case ParentEdge:
			b.add(p.edgeVerts[pi][0], 0.5)
			b.add(p.edgeVerts[pi][1], 0.5)
		case ParentVertex:
			b.add(pi, 1)
		}
		r.varyingRows.appendRow(&b)
	}
}

func (l *Level) addFaceCenter(b *rowBuilder, f int, w float64) {
	if w == 0 {
		return
	}
	verts := l.faceVerts.row(f)
	wi := w / float64(len(verts))
	for _, v := range verts {
		b.add(v, wi)
	}
}

// oppositeVertex returns the first vertex of face f not on the edge.
func (l *Level) oppositeVertex(f int, edge [2]int) int {
	for _, v := range l.faceVerts.row(f) {
		if v != edge[0] && v != edge[1] {
			return v
		}
	}
	return edge[0]
}

func filled(n, value int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = value
	}
	return s
}
