// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sdc

import "math"

// SchemeRules computes the masks of one scheme under one set of options.
// The zero value is not usable; call NewSchemeRules.
type SchemeRules struct {
	opts   Options
	crease Crease
}

// NewSchemeRules returns the rules for opts.
func NewSchemeRules(opts Options) SchemeRules {
	return SchemeRules{opts: opts, crease: NewCrease(opts)}
}

// Options returns the options the rules were built with.
func (r SchemeRules) Options() Options { return r.opts }

// Crease returns the crease rules in use.
func (r SchemeRules) Crease() Crease { return r.crease }

// FaceVertexMask returns the mask of a face point: the centroid of the
// face's n vertices.
func (r SchemeRules) FaceVertexMask(n int) Mask {
	m := newMask(n, 0, 0)
	w := 1 / float64(n)
	for i := range m.VertexWeights {
		m.VertexWeights[i] = w
	}
	return m
}

// EdgeVertexMask returns the mask of an edge point. Pass RuleUnknown for
// parentRule and childRule to derive them from the sharpness values.
// Edge rules only distinguish RuleSmooth from RuleCrease.
func (r SchemeRules) EdgeVertexMask(e EdgeNeighborhood, parentRule, childRule Rule) Mask {
	if r.opts.Scheme == Bilinear {
		return creaseEdgeMask(len(e.FaceSizes))
	}
	if parentRule == RuleUnknown {
		parentRule = RuleSmooth
		if IsSharp(e.Sharpness) {
			parentRule = RuleCrease
		}
	}
	if parentRule != RuleCrease {
		return r.smoothEdgeMask(e)
	}

	if childRule == RuleUnknown {
		childRule = RuleSmooth
		if IsSharp(e.ChildSharpness[0]) && IsSharp(e.ChildSharpness[1]) {
			childRule = RuleCrease
		}
	}
	if childRule == RuleCrease {
		return creaseEdgeMask(len(e.FaceSizes))
	}

	// Crease to smooth transition within this level.
	m := r.smoothEdgeMask(e)
	crease := creaseEdgeMask(len(e.FaceSizes))
	crease.FaceWeightsForCenters = m.FaceWeightsForCenters
	pWeight := float64(e.Sharpness)
	crease.blend(&m, pWeight)
	return crease
}

// VertexVertexMask returns the mask of a vertex point. Pass RuleUnknown for
// parentRule and childRule to derive them from the sharpness values.
func (r SchemeRules) VertexVertexMask(v VertexNeighborhood, parentRule, childRule Rule) Mask {
	if r.opts.Scheme == Bilinear {
		return cornerVertexMask(len(v.EdgeSharpness), v.FaceCount)
	}
	if parentRule == RuleUnknown {
		parentRule = r.crease.DetermineVertexVertexRule(v.Sharpness, v.EdgeSharpness)
	}
	m := r.vertexMaskForRule(v, parentRule, v.EdgeSharpness)
	if parentRule == RuleSmooth || parentRule == RuleDart {
		return m
	}

	if childRule == RuleUnknown {
		childRule = r.crease.DetermineVertexVertexRule(v.ChildSharpness, v.ChildEdgeSharpness)
	}
	if childRule == parentRule {
		return m
	}

	child := r.vertexMaskForRule(v, childRule, v.ChildEdgeSharpness)
	pWeight := r.crease.ComputeFractionalWeightAtVertex(v.Sharpness, v.ChildSharpness,
		v.EdgeSharpness, v.ChildEdgeSharpness)
	m.blend(&child, pWeight)
	return m
}

func (r SchemeRules) vertexMaskForRule(v VertexNeighborhood, rule Rule, edgeSharpness []float32) Mask {
	switch rule {
	case RuleCorner:
		return cornerVertexMask(len(v.EdgeSharpness), v.FaceCount)
	case RuleCrease:
		return creaseVertexMask(len(v.EdgeSharpness), v.FaceCount, edgeSharpness)
	default:
		if r.opts.Scheme == Loop {
			return loopSmoothVertexMask(len(v.EdgeSharpness), v.FaceCount)
		}
		return catmarkSmoothVertexMask(len(v.EdgeSharpness), v.FaceCount)
	}
}

func (r SchemeRules) smoothEdgeMask(e EdgeNeighborhood) Mask {
	if len(e.FaceSizes) != 2 {
		return creaseEdgeMask(len(e.FaceSizes))
	}
	m := newMask(2, 0, 2)
	if r.opts.Scheme == Loop {
		m.VertexWeights[0], m.VertexWeights[1] = 0.375, 0.375
		m.FaceWeights[0], m.FaceWeights[1] = 0.125, 0.125
		return m
	}

	m.FaceWeightsForCenters = true
	f0Tri := e.FaceSizes[0] == 3
	f1Tri := e.FaceSizes[1] == 3
	if r.opts.TriangleSubdivision != TriSmooth || (!f0Tri && !f1Tri) {
		m.VertexWeights[0], m.VertexWeights[1] = 0.25, 0.25
		m.FaceWeights[0], m.FaceWeights[1] = 0.25, 0.25
		return m
	}

	const triEdgeWeight = 0.470
	f0w, f1w := 0.25, 0.25
	if f0Tri {
		f0w = triEdgeWeight
	}
	if f1Tri {
		f1w = triEdgeWeight
	}
	fWeight := 0.5 * (f0w + f1w)
	vWeight := 0.5 * (1 - 2*fWeight)
	m.VertexWeights[0], m.VertexWeights[1] = vWeight, vWeight
	m.FaceWeights[0], m.FaceWeights[1] = fWeight, fWeight
	return m
}

func creaseEdgeMask(faces int) Mask {
	m := newMask(2, 0, faces)
	m.VertexWeights[0], m.VertexWeights[1] = 0.5, 0.5
	return m
}

func cornerVertexMask(edges, faces int) Mask {
	m := newMask(1, edges, faces)
	m.VertexWeights[0] = 1
	return m
}

// creaseVertexMask weights the vertex 3/4 and the far ends of its two sharp
// edges 1/8 each. With more or fewer than two sharp edges it degrades to a
// corner.
func creaseVertexMask(edges, faces int, sharpness []float32) Mask {
	m := newMask(1, edges, faces)
	var sharp [2]int
	n := 0
	for i, s := range sharpness {
		if IsSharp(s) {
			if n < 2 {
				sharp[n] = i
			}
			n++
		}
	}
	if n != 2 {
		m.VertexWeights[0] = 1
		return m
	}
	m.VertexWeights[0] = 0.75
	m.EdgeWeights[sharp[0]] = 0.125
	m.EdgeWeights[sharp[1]] = 0.125
	return m
}

func catmarkSmoothVertexMask(edges, faces int) Mask {
	m := newMask(1, edges, faces)
	m.FaceWeightsForCenters = true
	if edges == 0 {
		m.VertexWeights[0] = 1
		return m
	}
	n := float64(edges)
	w := 1 / (n * n)
	m.VertexWeights[0] = (n - 2) / n
	for i := range m.EdgeWeights {
		m.EdgeWeights[i] = w
	}
	for i := range m.FaceWeights {
		m.FaceWeights[i] = w
	}
	return m
}

func loopSmoothVertexMask(edges, faces int) Mask {
	m := newMask(1, edges, faces)
	if edges == 0 {
		m.VertexWeights[0] = 1
		return m
	}
	var eWeight, vWeight float64
	if edges == 6 {
		eWeight = 0.0625
		vWeight = 0.625
	} else {
		n := float64(edges)
		cosTheta := math.Cos(2 * math.Pi / n)
		beta := 0.25*cosTheta + 0.375
		eWeight = (0.625 - beta*beta) / n
		vWeight = 1 - eWeight*n
	}
	m.VertexWeights[0] = vWeight
	for i := range m.EdgeWeights {
		m.EdgeWeights[i] = eWeight
	}
	return m
}
