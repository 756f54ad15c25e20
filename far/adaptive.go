// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package far

import "github.com/gogpu/subdiv/sdc"

// selectAdaptiveFaces marks the faces of l to refine at the given depth and
// returns the mask and the number of marked faces.
//
// A face is refined when all its corners are complete and it touches a
// feature, either directly or through a shared vertex (the one-ring of the
// feature). Requiring complete corners keeps every child row exact.
func selectAdaptiveFaces(l *Level, depth int, opts AdaptiveOptions, scheme sdc.Scheme) ([]bool, int) {
	smoothLimit := min(opts.IsolationLevel, opts.SecondaryLevel)
	feature := make([]bool, l.vertCount)
	for v := range l.vertCount {
		limit := vertexFeatureLimit(l, v, opts, smoothLimit)
		feature[v] = depth < limit
	}

	eligible := func(f int) bool {
		if l.faceHoles[f] {
			return false
		}
		for _, v := range l.faceVerts.row(f) {
			if l.vertTags[v].incomplete {
				return false
			}
		}
		return true
	}

	// Vertices of feature faces seed the one-ring.
	ring := make([]bool, l.vertCount)
	for f := range l.FaceCount() {
		if !eligible(f) {
			continue
		}
		verts := l.faceVerts.row(f)
		isFeature := len(verts) != scheme.RegularFaceSize() && depth < opts.IsolationLevel
		for _, v := range verts {
			isFeature = isFeature || feature[v]
		}
		if isFeature {
			for _, v := range verts {
				ring[v] = true
			}
		}
	}

	selected := make([]bool, l.FaceCount())
	n := 0
	for f := range selected {
		if !eligible(f) {
			continue
		}
		for _, v := range l.faceVerts.row(f) {
			if ring[v] {
				selected[f] = true
				n++
				break
			}
		}
	}
	return selected, n
}

// vertexFeatureLimit returns the depth to which vertex v must be isolated;
// 0 when it is not a feature.
func vertexFeatureLimit(l *Level, v int, opts AdaptiveOptions, smoothLimit int) int {
	tag := l.vertTags[v]
	if tag.incomplete {
		return 0
	}
	if tag.nonManifold {
		return opts.IsolationLevel
	}

	// Count sharp edges that do not come from the mesh boundary.
	sharp, semiSharp := 0, 0
	var first float32
	uniformSharpness := true
	for _, e := range l.vertEdges.row(v) {
		if l.edgeTags[e].boundary {
			continue
		}
		s := l.edgeSharpness[e]
		if !sdc.IsSharp(s) {
			continue
		}
		if sharp == 0 {
			first = s
		} else if s != first {
			uniformSharpness = false
		}
		sharp++
		if sdc.IsSemiSharp(s) {
			semiSharp++
		}
	}

	vs := l.vertSharpness[v]
	cornerOfBoundary := tag.boundary && l.vertFaces.count(v) == 1
	sharpVertex := sdc.IsSharp(vs) && !cornerOfBoundary

	if opts.SingleCreasePatch && !tag.boundary && !sharpVertex && !tag.irregular &&
		sharp == 2 && semiSharp == 2 && uniformSharpness {
		return 0
	}
	if sharpVertex || sharp > 0 {
		return opts.IsolationLevel
	}
	if tag.irregular {
		if tag.boundary {
			return opts.IsolationLevel
		}
		return smoothLimit
	}
	return 0
}
