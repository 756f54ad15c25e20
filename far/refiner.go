// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package far

import (
	"fmt"

	"github.com/gogpu/subdiv"
	"github.com/gogpu/subdiv/sdc"
)

// MaxRefinementLevel is the deepest level a refiner will build.
const MaxRefinementLevel = 10

// UniformOptions control RefineUniform.
type UniformOptions struct {
	// RefinementLevel is the number of levels to add, in [1, MaxRefinementLevel].
	RefinementLevel int

	// OrderVerticesFromFacesFirst numbers child vertices face points first,
	// then edge points, then vertex points. Otherwise vertex points come
	// first.
	OrderVerticesFromFacesFirst bool
}

// DefaultUniformOptions returns four levels with face points first.
func DefaultUniformOptions() UniformOptions {
	return UniformOptions{RefinementLevel: 4, OrderVerticesFromFacesFirst: true}
}

// AdaptiveOptions control RefineAdaptive.
type AdaptiveOptions struct {
	// IsolationLevel is the depth to which sharp features and irregular
	// boundaries are isolated, in [1, MaxRefinementLevel].
	IsolationLevel int

	// SecondaryLevel caps the isolation of smooth extraordinary vertices.
	SecondaryLevel int

	// SingleCreasePatch stops isolating regular vertices that lie on a
	// single semi-sharp crease.
	SingleCreasePatch bool
}

// DefaultAdaptiveOptions returns isolation level 4 with no secondary cap.
func DefaultAdaptiveOptions() AdaptiveOptions {
	return AdaptiveOptions{IsolationLevel: 4, SecondaryLevel: 15}
}

// TopologyRefiner owns the hierarchy of levels refined from a base mesh.
//
// A refiner is refined at most once. After that it is immutable and safe
// for concurrent use.
type TopologyRefiner struct {
	opts   sdc.Options
	rules  sdc.SchemeRules
	levels []*Level

	refined  bool
	uniform  bool
	adaptive AdaptiveOptions

	baseHash uint64
	hash     uint64
}

// NewTopologyRefiner validates desc and builds the base level. It never
// returns a partially built refiner.
func NewTopologyRefiner(desc TopologyDescriptor, opts sdc.Options) (*TopologyRefiner, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompatibleOptions, err)
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if opts.Scheme == sdc.Loop {
		for f, n := range desc.FaceVertexCounts {
			if n != 3 {
				return nil, fmt.Errorf("%w: Loop scheme requires triangles, face %d has %d vertices",
					ErrIncompatibleOptions, f, n)
			}
		}
	}

	r := &TopologyRefiner{
		opts:  opts,
		rules: sdc.NewSchemeRules(opts),
	}
	r.levels = []*Level{buildBaseLevel(&desc, opts, r.rules.Crease())}
	r.baseHash = fingerprintBase(&desc, opts)
	r.hash = r.baseHash

	base := r.levels[0]
	subdiv.Logger().Debug("far: base level built",
		"scheme", opts.Scheme,
		"vertices", base.VertexCount(),
		"faces", base.FaceCount(),
		"edges", base.EdgeCount())
	return r, nil
}

// buildBaseLevel builds level 0 and applies boundary, crease and hole
// tagging.
func buildBaseLevel(desc *TopologyDescriptor, opts sdc.Options, crease sdc.Crease) *Level {
	indices := desc.FaceVertexIndices
	if desc.LeftHanded {
		indices = reverseWinding(desc.FaceVertexCounts, indices)
	}
	l := newLevelTopology(0, desc.VertexCount, desc.FaceVertexCounts, indices)

	for e, tag := range l.edgeTags {
		if tag.boundary || tag.nonManifold {
			l.edgeSharpness[e] = sdc.SharpnessInfinite
		}
	}
	for _, c := range desc.Creases {
		e, ok := l.FindEdge(c.V0, c.V1)
		if !ok || sdc.IsInfinite(l.edgeSharpness[e]) {
			continue
		}
		l.edgeSharpness[e] = min(c.Sharpness, sdc.SharpnessInfinite)
	}
	for _, c := range desc.Corners {
		l.vertSharpness[c.Vertex] = min(c.Sharpness, sdc.SharpnessInfinite)
	}
	for v, tag := range l.vertTags {
		switch {
		case tag.nonManifold:
			l.vertSharpness[v] = sdc.SharpnessInfinite
		case tag.boundary && opts.VtxBoundaryInterpolation == sdc.BoundaryEdgeAndCorner &&
			l.vertFaces.count(v) == 1:
			l.vertSharpness[v] = sdc.SharpnessInfinite
		}
	}

	for _, h := range desc.Holes {
		l.faceHoles[h] = true
	}
	if opts.VtxBoundaryInterpolation == sdc.BoundaryNone && opts.Scheme != sdc.Bilinear {
		for f := range l.FaceCount() {
			for _, v := range l.faceVerts.row(f) {
				if l.vertTags[v].boundary {
					l.faceHoles[f] = true
					break
				}
			}
		}
	}

	l.computeRules(opts.Scheme, crease)

	for _, ch := range desc.FVarChannels {
		values := ch.ValueIndices
		if desc.LeftHanded {
			values = reverseWinding(desc.FaceVertexCounts, values)
		}
		l.fvar = append(l.fvar, newFVarLevel(l, ch.ValueCount, values))
	}
	return l
}

// reverseWinding keeps the first corner of every face and reverses the rest.
func reverseWinding(counts, items []int) []int {
	out := make([]int, len(items))
	offset := 0
	for _, n := range counts {
		out[offset] = items[offset]
		for i := 1; i < n; i++ {
			out[offset+i] = items[offset+n-i]
		}
		offset += n
	}
	return out
}

// RefineUniform refines every face RefinementLevel times.
func (r *TopologyRefiner) RefineUniform(opts UniformOptions) error {
	if r.refined {
		return ErrAlreadyRefined
	}
	if opts.RefinementLevel < 1 || opts.RefinementLevel > MaxRefinementLevel {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidRefinementLevel,
			opts.RefinementLevel, MaxRefinementLevel)
	}

	for range opts.RefinementLevel {
		parent := r.levels[len(r.levels)-1]
		ref := refineLevel(parent, r.rules, nil, opts.OrderVerticesFromFacesFirst)
		r.levels = append(r.levels, ref.child)
	}
	r.refined = true
	r.uniform = true
	r.hash = fingerprintRefinement(r.baseHash, true, opts.RefinementLevel, boolInt(opts.OrderVerticesFromFacesFirst), 0)

	subdiv.Logger().Debug("far: uniform refinement",
		"levels", opts.RefinementLevel,
		"vertices", r.TotalVertexCount(),
		"faces", r.TotalFaceCount())
	return nil
}

// RefineAdaptive refines only around features, see selectAdaptiveFaces.
// Refinement stops early once no face qualifies.
func (r *TopologyRefiner) RefineAdaptive(opts AdaptiveOptions) error {
	if r.refined {
		return ErrAlreadyRefined
	}
	if opts.IsolationLevel < 1 || opts.IsolationLevel > MaxRefinementLevel {
		return fmt.Errorf("%w: isolation %d not in [1, %d]", ErrInvalidRefinementLevel,
			opts.IsolationLevel, MaxRefinementLevel)
	}
	if opts.SecondaryLevel < 0 {
		return fmt.Errorf("%w: negative secondary level %d", ErrInvalidRefinementLevel, opts.SecondaryLevel)
	}

	for depth := range opts.IsolationLevel {
		parent := r.levels[len(r.levels)-1]
		selected, n := selectAdaptiveFaces(parent, depth, opts, r.opts.Scheme)
		if n == 0 {
			break
		}
		ref := refineLevel(parent, r.rules, selected, true)
		r.levels = append(r.levels, ref.child)
	}
	r.refined = true
	r.adaptive = opts
	r.hash = fingerprintRefinement(r.baseHash, false, opts.IsolationLevel, opts.SecondaryLevel,
		boolInt(opts.SingleCreasePatch))

	subdiv.Logger().Debug("far: adaptive refinement",
		"isolation", opts.IsolationLevel,
		"levels", len(r.levels)-1,
		"vertices", r.TotalVertexCount(),
		"faces", r.TotalFaceCount())
	return nil
}

// Options returns the subdivision options.
func (r *TopologyRefiner) Options() sdc.Options { return r.opts }

// IsRefined reports whether RefineUniform or RefineAdaptive has run.
func (r *TopologyRefiner) IsRefined() bool { return r.refined }

// IsUniform reports whether the refiner was refined uniformly.
func (r *TopologyRefiner) IsUniform() bool { return r.uniform }

// LevelCount returns the number of levels, base level included.
func (r *TopologyRefiner) LevelCount() int { return len(r.levels) }

// MaxLevel returns the depth of the deepest level.
func (r *TopologyRefiner) MaxLevel() int { return len(r.levels) - 1 }

// BaseLevel returns level 0.
func (r *TopologyRefiner) BaseLevel() *Level { return r.levels[0] }

// Level returns the level at depth, or nil when depth is out of range.
func (r *TopologyRefiner) Level(depth int) *Level {
	if depth < 0 || depth >= len(r.levels) {
		return nil
	}
	return r.levels[depth]
}

// TotalVertexCount returns the number of vertices over all levels.
func (r *TopologyRefiner) TotalVertexCount() int {
	n := 0
	for _, l := range r.levels {
		n += l.VertexCount()
	}
	return n
}

// TotalFaceCount returns the number of faces over all levels.
func (r *TopologyRefiner) TotalFaceCount() int {
	n := 0
	for _, l := range r.levels {
		n += l.FaceCount()
	}
	return n
}

// TotalEdgeCount returns the number of edges over all levels.
func (r *TopologyRefiner) TotalEdgeCount() int {
	n := 0
	for _, l := range r.levels {
		n += l.EdgeCount()
	}
	return n
}

// Fingerprint returns a hash of the base mesh, options and refinement
// parameters. Refiners with equal fingerprints produce equal stencil tables.
func (r *TopologyRefiner) Fingerprint() uint64 { return r.hash }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
