// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package far

import (
	"golang.org/x/exp/slices"

	"github.com/gogpu/subdiv/sdc"
)

// fvarLevel is the face-varying topology of one channel at one level.
// A vertex carries one value per region of faces that share it; more than
// one value marks a seam.
type fvarLevel struct {
	valueCount int
	faceValues []int    // parallel to Level.faceVerts.items
	vertValues relation // distinct values around each vertex, in face order
}

func newFVarLevel(l *Level, valueCount int, faceValues []int) *fvarLevel {
	fv := &fvarLevel{valueCount: valueCount, faceValues: faceValues}
	fv.vertValues = newRelation(l.vertCount, len(faceValues))
	var values []int
	for v := range l.vertCount {
		values = values[:0]
		for j, f := range l.vertFaces.row(v) {
			val := fv.faceValues[l.faceVerts.offsets[f]+l.vertFaceCorner.row(v)[j]]
			if !slices.Contains(values, val) {
				values = append(values, val)
			}
		}
		fv.vertValues.appendRow(values...)
	}
	return fv
}

// valueAt returns the value of face f at its corner holding vertex v.
func (fv *fvarLevel) valueAt(l *Level, f, v int) int {
	return fv.faceValues[l.faceVerts.offsets[f]+l.cornerOf(f, v)]
}

func (fv *fvarLevel) addFaceCenter(l *Level, b *rowBuilder, f int, w float64) {
	if w == 0 {
		return
	}
	lo, hi := l.faceVerts.offsets[f], l.faceVerts.offsets[f+1]
	wi := w / float64(hi-lo)
	for _, val := range fv.faceValues[lo:hi] {
		b.add(val, wi)
	}
}

// edgeValuePairs returns the distinct (value at v0, value at v1) pairs of
// the faces around edge e, in edge-face order.
func (fv *fvarLevel) edgeValuePairs(l *Level, e int, dst [][2]int) [][2]int {
	dst = dst[:0]
	ev := l.edgeVerts[e]
	for _, f := range l.edgeFaces.row(e) {
		pair := [2]int{fv.valueAt(l, f, ev[0]), fv.valueAt(l, f, ev[1])}
		if !slices.Contains(dst, pair) {
			dst = append(dst, pair)
		}
	}
	return dst
}

// refineFVarChannel builds channel ch of the child level and the rows that
// produce each child value from parent values.
func (r *refinement) refineFVarChannel(ch int) {
	p, c := r.parent, r.child
	pfv := p.fvar[ch]
	mode := r.rules.Options().FVarLinearInterpolation

	valueOffset := make([]int, len(r.childVertKind))
	rows := newRowTable(len(r.childVertKind))
	var (
		b        rowBuilder
		pairs    [][2]int
		incident []float32
	)
	for cv, kind := range r.childVertKind {
		valueOffset[cv] = rows.rowCount()
		pi := r.childVertParent[cv]
		switch kind {
		case ParentFace:
			b.reset()
			pfv.addFaceCenter(p, &b, pi, 1)
			rows.appendRow(&b)
		case ParentEdge:
			pairs = pfv.edgeValuePairs(p, pi, pairs)
			smooth := mode != sdc.FVarLinearAll && len(pairs) == 1
			var m sdc.Mask
			if smooth {
				var nb sdc.EdgeNeighborhood
				nb, incident = r.edgeNeighborhood(pi, incident)
				m = r.rules.EdgeVertexMask(nb, sdc.RuleUnknown, sdc.RuleUnknown)
			}
			for _, pair := range pairs {
				b.reset()
				if smooth {
					r.addFVarEdgeMask(pfv, &b, pi, pair, &m)
				} else {
					b.add(pair[0], 0.5)
					b.add(pair[1], 0.5)
				}
				rows.appendRow(&b)
			}
		case ParentVertex:
			for _, val := range pfv.vertValues.row(pi) {
				b.reset()
				r.addFVarVertexRow(pfv, &b, pi, val, mode)
				rows.appendRow(&b)
			}
		}
	}

	faceValues := make([]int, len(c.faceVerts.items))
	for cf, pf := range r.childFaceParent {
		lo := c.faceVerts.offsets[cf]
		for j, cv := range c.faceVerts.row(cf) {
			pi := r.childVertParent[cv]
			idx := valueOffset[cv]
			switch r.childVertKind[cv] {
			case ParentEdge:
				ev := p.edgeVerts[pi]
				pair := [2]int{pfv.valueAt(p, pf, ev[0]), pfv.valueAt(p, pf, ev[1])}
				pairs = pfv.edgeValuePairs(p, pi, pairs)
				idx += slices.Index(pairs, pair)
			case ParentVertex:
				idx += slices.Index(pfv.vertValues.row(pi), pfv.valueAt(p, pf, pi))
			}
			faceValues[lo+j] = idx
		}
	}

	c.fvar = append(c.fvar, newFVarLevel(c, rows.rowCount(), faceValues))
	r.fvarRows = append(r.fvarRows, rows)
}

// addFVarEdgeMask maps a vertex edge mask onto the values of an edge
// without a seam.
func (r *refinement) addFVarEdgeMask(pfv *fvarLevel, b *rowBuilder, e int, pair [2]int, m *sdc.Mask) {
	p := r.parent
	b.add(pair[0], m.VertexWeights[0])
	b.add(pair[1], m.VertexWeights[1])
	ev := p.edgeVerts[e]
	for j, f := range p.edgeFaces.row(e) {
		switch {
		case m.FaceWeightsForCenters:
			pfv.addFaceCenter(p, b, f, m.FaceWeights[j])
		case m.FaceWeights[j] != 0:
			b.add(pfv.valueAt(p, f, p.oppositeVertex(f, ev)), m.FaceWeights[j])
		}
	}
}

// addFVarVertexRow writes the row of the child of value val at parent
// vertex v.
func (r *refinement) addFVarVertexRow(pfv *fvarLevel, b *rowBuilder, v, val int,
	mode sdc.FVarLinearInterpolation) {
	p := r.parent
	groups := pfv.vertValues.count(v)
	tag := p.vertTags[v]

	if mode == sdc.FVarLinearAll {
		b.add(val, 1)
		return
	}

	if groups == 1 {
		meshCorner := tag.boundary && p.vertFaces.count(v) == 1
		if (mode == sdc.FVarLinearBoundaries && tag.boundary) ||
			(mode >= sdc.FVarLinearCornersOnly && meshCorner) ||
			(mode >= sdc.FVarLinearCornersPlus2 && r.fvarSeamCount(pfv, v) == 1) {
			b.add(val, 1)
			return
		}
		m := r.rules.VertexVertexMask(r.vertexNeighborhood(v), sdc.RuleUnknown, sdc.RuleUnknown)
		b.add(val, m.VertexWeights[0])
		for i, e := range p.vertEdges.row(v) {
			if m.EdgeWeights[i] == 0 {
				continue
			}
			f := p.edgeFaces.row(e)[0]
			b.add(pfv.valueAt(p, f, p.otherVertex(e, v)), m.EdgeWeights[i])
		}
		if m.FaceWeightsForCenters {
			for j, f := range p.vertFaces.row(v) {
				pfv.addFaceCenter(p, b, f, m.FaceWeights[j])
			}
		}
		return
	}

	// Several regions meet at v: val's region is bounded by seam edges.
	regionFaces := 0
	var ends [2]int
	boundaryEdges := 0
	for _, e := range p.vertEdges.row(v) {
		inside, outside := 0, 0
		end := -1
		for _, f := range p.edgeFaces.row(e) {
			if pfv.valueAt(p, f, v) == val {
				inside++
				end = pfv.valueAt(p, f, p.otherVertex(e, v))
			} else {
				outside++
			}
		}
		if inside > 0 && (outside > 0 || inside == 1) {
			if boundaryEdges < 2 {
				ends[boundaryEdges] = end
			}
			boundaryEdges++
		}
	}
	for _, f := range p.vertFaces.row(v) {
		if pfv.valueAt(p, f, v) == val {
			regionFaces++
		}
	}

	linear := mode == sdc.FVarLinearBoundaries ||
		tag.rule == sdc.RuleCorner ||
		boundaryEdges != 2 ||
		(regionFaces == 1 && mode >= sdc.FVarLinearCornersOnly) ||
		(groups >= 3 && mode >= sdc.FVarLinearCornersPlus1) ||
		(groups == 2 && mode == sdc.FVarLinearCornersPlus2 && !tag.boundary &&
			2*regionFaces > p.vertFaces.count(v))
	if linear {
		b.add(val, 1)
		return
	}
	b.add(val, 0.75)
	b.add(ends[0], 0.125)
	b.add(ends[1], 0.125)
}

// fvarSeamCount returns the number of seam edges incident to v. A vertex
// with a single value and one seam edge is an fvar dart.
func (r *refinement) fvarSeamCount(pfv *fvarLevel, v int) int {
	p := r.parent
	n := 0
	var pairs [][2]int
	for _, e := range p.vertEdges.row(v) {
		if pairs = pfv.edgeValuePairs(p, e, pairs); len(pairs) > 1 {
			n++
		}
	}
	return n
}
