// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package far

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/subdiv/sdc"
)

// =============================================================================
// Construction
// =============================================================================

func TestNewTopologyRefiner_InvalidTopology(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *TopologyDescriptor)
	}{
		{"count sum mismatch", func(d *TopologyDescriptor) { d.FaceVertexCounts[0] = 5 }},
		{"face with two vertices", func(d *TopologyDescriptor) {
			d.FaceVertexCounts = []int{2, 4, 4, 4, 4, 4, 2}
		}},
		{"index out of range", func(d *TopologyDescriptor) { d.FaceVertexIndices[3] = 8 }},
		{"negative index", func(d *TopologyDescriptor) { d.FaceVertexIndices[0] = -1 }},
		{"repeated vertex", func(d *TopologyDescriptor) { d.FaceVertexIndices[1] = 0 }},
		{"crease not an edge", func(d *TopologyDescriptor) {
			d.Creases = []Crease{{V0: 0, V1: 3, Sharpness: 1}}
		}},
		{"negative crease", func(d *TopologyDescriptor) {
			d.Creases = []Crease{{V0: 0, V1: 1, Sharpness: -1}}
		}},
		{"corner out of range", func(d *TopologyDescriptor) {
			d.Corners = []Corner{{Vertex: 9, Sharpness: 1}}
		}},
		{"hole out of range", func(d *TopologyDescriptor) { d.Holes = []int{6} }},
		{"fvar length", func(d *TopologyDescriptor) {
			d.FVarChannels = []FVarChannel{{ValueCount: 4, ValueIndices: []int{0, 1}}}
		}},
		{"fvar value out of range", func(d *TopologyDescriptor) {
			values := make([]int, 24)
			values[5] = 4
			d.FVarChannels = []FVarChannel{{ValueCount: 4, ValueIndices: values}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := cubeDescriptor()
			tt.mutate(&d)
			r, err := NewTopologyRefiner(d, sdc.DefaultOptions())
			if !errors.Is(err, ErrInvalidTopology) {
				t.Fatalf("NewTopologyRefiner() error = %v, want ErrInvalidTopology", err)
			}
			if r != nil {
				t.Error("NewTopologyRefiner() returned a refiner with an error")
			}
		})
	}
}

func TestNewTopologyRefiner_LoopRequiresTriangles(t *testing.T) {
	_, err := NewTopologyRefiner(cubeDescriptor(), schemeOptions(sdc.Loop))
	if !errors.Is(err, ErrIncompatibleOptions) {
		t.Errorf("Loop on quads: error = %v, want ErrIncompatibleOptions", err)
	}
}

func TestNewTopologyRefiner_BadOptions(t *testing.T) {
	opts := sdc.DefaultOptions()
	opts.Scheme = sdc.Scheme(9)
	_, err := NewTopologyRefiner(cubeDescriptor(), opts)
	if !errors.Is(err, ErrIncompatibleOptions) {
		t.Errorf("error = %v, want ErrIncompatibleOptions", err)
	}
}

// =============================================================================
// Uniform refinement
// =============================================================================

func TestRefineUniform_CubeCounts(t *testing.T) {
	r := mustUniform(t, cubeDescriptor(), catmarkOptions(sdc.BoundaryEdgeOnly), 2)

	want := []struct{ verts, faces, edges int }{
		{8, 6, 12},
		{26, 24, 48},
		{98, 96, 192},
	}
	if r.LevelCount() != len(want) {
		t.Fatalf("LevelCount() = %d, want %d", r.LevelCount(), len(want))
	}
	for depth, w := range want {
		l := r.Level(depth)
		if l.VertexCount() != w.verts || l.FaceCount() != w.faces || l.EdgeCount() != w.edges {
			t.Errorf("level %d: V=%d F=%d E=%d, want V=%d F=%d E=%d", depth,
				l.VertexCount(), l.FaceCount(), l.EdgeCount(), w.verts, w.faces, w.edges)
		}
		if depth > 0 {
			p := r.Level(depth - 1)
			if got := p.VertexCount() + p.EdgeCount() + p.FaceCount(); got != l.VertexCount() {
				t.Errorf("level %d: V' = %d, want V+E+F = %d", depth, l.VertexCount(), got)
			}
		}
	}
	if r.TotalVertexCount() != 8+26+98 {
		t.Errorf("TotalVertexCount() = %d", r.TotalVertexCount())
	}
	if r.TotalFaceCount() != 6+24+96 {
		t.Errorf("TotalFaceCount() = %d", r.TotalFaceCount())
	}
	if r.TotalEdgeCount() != 12+48+192 {
		t.Errorf("TotalEdgeCount() = %d", r.TotalEdgeCount())
	}
	if !r.IsUniform() || r.MaxLevel() != 2 {
		t.Errorf("IsUniform() = %v, MaxLevel() = %d", r.IsUniform(), r.MaxLevel())
	}
}

func TestRefineUniform_CubeAllQuads(t *testing.T) {
	r := mustUniform(t, cubeDescriptor(), catmarkOptions(sdc.BoundaryEdgeOnly), 2)
	l := r.Level(2)
	for f := range l.FaceCount() {
		if n := len(l.FaceVertices(f)); n != 4 {
			t.Fatalf("level 2 face %d has %d vertices, want 4", f, n)
		}
	}
}

func TestRefineUniform_LoopCounts(t *testing.T) {
	r := mustUniform(t, tetraDescriptor(), schemeOptions(sdc.Loop), 2)
	want := []struct{ verts, faces, edges int }{
		{4, 4, 6},
		{10, 16, 24},
		{34, 64, 96},
	}
	for depth, w := range want {
		l := r.Level(depth)
		if l.VertexCount() != w.verts || l.FaceCount() != w.faces || l.EdgeCount() != w.edges {
			t.Errorf("level %d: V=%d F=%d E=%d, want V=%d F=%d E=%d", depth,
				l.VertexCount(), l.FaceCount(), l.EdgeCount(), w.verts, w.faces, w.edges)
		}
	}
}

func TestRefineUniform_Errors(t *testing.T) {
	r := mustRefiner(t, cubeDescriptor(), sdc.DefaultOptions())
	for _, n := range []int{0, -1, MaxRefinementLevel + 1} {
		err := r.RefineUniform(UniformOptions{RefinementLevel: n})
		if !errors.Is(err, ErrInvalidRefinementLevel) {
			t.Errorf("RefineUniform(%d) error = %v, want ErrInvalidRefinementLevel", n, err)
		}
	}
	if err := r.RefineUniform(UniformOptions{RefinementLevel: 1}); err != nil {
		t.Fatalf("RefineUniform(1) error = %v", err)
	}
	if err := r.RefineUniform(UniformOptions{RefinementLevel: 1}); !errors.Is(err, ErrAlreadyRefined) {
		t.Errorf("second RefineUniform() error = %v, want ErrAlreadyRefined", err)
	}
	if err := r.RefineAdaptive(DefaultAdaptiveOptions()); !errors.Is(err, ErrAlreadyRefined) {
		t.Errorf("RefineAdaptive() after uniform error = %v, want ErrAlreadyRefined", err)
	}
}

func TestRefineUniform_VertexOrdering(t *testing.T) {
	tests := []struct {
		facesFirst bool
		want       []int // kind of child vertices 0, 6, 18
	}{
		{true, []int{ParentFace, ParentEdge, ParentVertex}},
		{false, []int{ParentVertex, ParentFace, ParentEdge}},
	}
	for _, tt := range tests {
		r := mustRefiner(t, cubeDescriptor(), sdc.DefaultOptions())
		if err := r.RefineUniform(UniformOptions{RefinementLevel: 1, OrderVerticesFromFacesFirst: tt.facesFirst}); err != nil {
			t.Fatal(err)
		}
		l := r.Level(1)
		// Cube: 6 faces, 12 edges, 8 vertices.
		firsts := map[bool][]int{true: {0, 6, 18}, false: {0, 8, 14}}[tt.facesFirst]
		for i, v := range firsts {
			if kind, _ := l.VertexParent(v); kind != tt.want[i] {
				t.Errorf("facesFirst=%v: VertexParent(%d) kind = %d, want %d", tt.facesFirst, v, kind, tt.want[i])
			}
		}
	}
}

func TestLevel_ParentChildLinks(t *testing.T) {
	r := mustUniform(t, cubeDescriptor(), sdc.DefaultOptions(), 1)
	base, child := r.Level(0), r.Level(1)

	for v := range child.VertexCount() {
		kind, p := child.VertexParent(v)
		var back int
		switch kind {
		case ParentFace:
			back = base.FaceChildVertex(p)
		case ParentEdge:
			back = base.EdgeChildVertex(p)
		case ParentVertex:
			back = base.VertexChildVertex(p)
		}
		if back != v {
			t.Errorf("child vertex %d: parent (%d, %d) maps back to %d", v, kind, p, back)
		}
	}
	for f := range base.FaceCount() {
		children := base.FaceChildFaces(f)
		if len(children) != 4 {
			t.Fatalf("FaceChildFaces(%d) = %v, want 4 faces", f, children)
		}
		for _, cf := range children {
			if got := child.FaceParentFace(cf); got != f {
				t.Errorf("FaceParentFace(%d) = %d, want %d", cf, got, f)
			}
		}
		if got := len(base.FaceChildEdges(f)); got != 4 {
			t.Errorf("len(FaceChildEdges(%d)) = %d, want 4", f, got)
		}
	}
	for e := range base.EdgeCount() {
		halves := base.EdgeChildEdges(e)
		mid := base.EdgeChildVertex(e)
		for i, ce := range halves {
			if ce < 0 {
				t.Fatalf("EdgeChildEdges(%d) = %v", e, halves)
			}
			ev := child.EdgeVertices(ce)
			end := base.VertexChildVertex(base.EdgeVertices(e)[i])
			if (ev[0] != mid || ev[1] != end) && (ev[1] != mid || ev[0] != end) {
				t.Errorf("edge %d half %d = %v, want {%d, %d}", e, i, ev, end, mid)
			}
		}
	}
	if base.FaceParentFace(0) != -1 {
		t.Error("base level faces should have no parent")
	}
	if kind, idx := base.VertexParent(0); kind != -1 || idx != -1 {
		t.Errorf("base VertexParent(0) = (%d, %d), want (-1, -1)", kind, idx)
	}
}

// =============================================================================
// Level topology
// =============================================================================

func TestLevel_CubeAdjacency(t *testing.T) {
	l := mustRefiner(t, cubeDescriptor(), sdc.DefaultOptions()).BaseLevel()
	for v := range l.VertexCount() {
		if l.Valence(v) != 3 || len(l.VertexFaces(v)) != 3 {
			t.Errorf("vertex %d: valence %d, %d faces, want 3", v, l.Valence(v), len(l.VertexFaces(v)))
		}
		if l.IsVertexBoundary(v) || l.IsVertexNonManifold(v) {
			t.Errorf("vertex %d tagged boundary or non-manifold", v)
		}
		if !l.IsVertexIrregular(v) {
			t.Errorf("valence-3 vertex %d should be irregular", v)
		}
		if l.VertexRule(v) != sdc.RuleSmooth {
			t.Errorf("VertexRule(%d) = %v, want Smooth", v, l.VertexRule(v))
		}
	}
	for e := range l.EdgeCount() {
		if len(l.EdgeFaces(e)) != 2 || l.IsEdgeBoundary(e) {
			t.Errorf("edge %d: faces %v, boundary %v", e, l.EdgeFaces(e), l.IsEdgeBoundary(e))
		}
	}
	if _, ok := l.FindEdge(0, 3); ok {
		t.Error("FindEdge(0, 3) found a diagonal")
	}
	e, ok := l.FindEdge(3, 1)
	if !ok {
		t.Fatal("FindEdge(3, 1) not found")
	}
	if ev := l.EdgeVertices(e); !(ev == [2]int{1, 3} || ev == [2]int{3, 1}) {
		t.Errorf("EdgeVertices(%d) = %v", e, ev)
	}
}

func TestLevel_VertexFanOrder(t *testing.T) {
	l := mustRefiner(t, cubeDescriptor(), sdc.DefaultOptions()).BaseLevel()
	for v := range l.VertexCount() {
		faces, edges := l.VertexFaces(v), l.VertexEdges(v)
		for i, f := range faces {
			fe := l.FaceEdges(f)
			if !contains(fe, edges[i]) || !contains(fe, edges[(i+1)%len(edges)]) {
				t.Errorf("vertex %d: face %d does not hold edges %d and %d",
					v, f, edges[i], edges[(i+1)%len(edges)])
			}
		}
	}
}

func contains(s []int, x int) bool {
	for _, v := range s {
		if v == x {
			return true
		}
	}
	return false
}

func TestLevel_BoundaryTagging(t *testing.T) {
	tests := []struct {
		name       string
		boundary   sdc.BoundaryInterpolation
		cornerRule sdc.Rule
		holes      int
	}{
		{"none", sdc.BoundaryNone, sdc.RuleCrease, 4},
		{"edge only", sdc.BoundaryEdgeOnly, sdc.RuleCrease, 0},
		{"edge and corner", sdc.BoundaryEdgeAndCorner, sdc.RuleCorner, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := mustRefiner(t, gridDescriptor(2), catmarkOptions(tt.boundary)).BaseLevel()
			if got := l.VertexRule(0); got != tt.cornerRule {
				t.Errorf("corner VertexRule = %v, want %v", got, tt.cornerRule)
			}
			if !l.IsVertexBoundary(1) || l.VertexRule(1) != sdc.RuleCrease {
				t.Errorf("edge vertex: boundary %v rule %v", l.IsVertexBoundary(1), l.VertexRule(1))
			}
			if l.IsVertexBoundary(4) || l.VertexRule(4) != sdc.RuleSmooth || l.IsVertexIrregular(4) {
				t.Errorf("center vertex: boundary %v rule %v irregular %v",
					l.IsVertexBoundary(4), l.VertexRule(4), l.IsVertexIrregular(4))
			}
			e, _ := l.FindEdge(0, 1)
			if !l.IsEdgeBoundary(e) || l.EdgeSharpness(e) != sdc.SharpnessInfinite {
				t.Errorf("boundary edge sharpness = %v", l.EdgeSharpness(e))
			}
			holes := 0
			for f := range l.FaceCount() {
				if l.IsFaceHole(f) {
					holes++
				}
			}
			if holes != tt.holes {
				t.Errorf("holes = %d, want %d", holes, tt.holes)
			}
		})
	}
}

func TestLevel_NonManifold(t *testing.T) {
	// Three triangles share edge (0, 1).
	d := TopologyDescriptor{
		VertexCount:       5,
		FaceVertexCounts:  []int{3, 3, 3},
		FaceVertexIndices: []int{0, 1, 2, 1, 0, 3, 0, 1, 4},
	}
	l := mustRefiner(t, d, schemeOptions(sdc.Loop)).BaseLevel()
	e, _ := l.FindEdge(0, 1)
	if !l.IsEdgeNonManifold(e) || !sdc.IsInfinite(l.EdgeSharpness(e)) {
		t.Errorf("edge (0,1): non-manifold %v sharpness %v", l.IsEdgeNonManifold(e), l.EdgeSharpness(e))
	}
	if !l.IsVertexNonManifold(0) || !sdc.IsInfinite(l.VertexSharpness(0)) {
		t.Errorf("vertex 0: non-manifold %v sharpness %v", l.IsVertexNonManifold(0), l.VertexSharpness(0))
	}
	if l.VertexRule(0) != sdc.RuleCorner {
		t.Errorf("VertexRule(0) = %v, want Corner", l.VertexRule(0))
	}
}

func TestLevel_LeftHanded(t *testing.T) {
	d := cubeDescriptor()
	d.LeftHanded = true
	l := mustRefiner(t, d, sdc.DefaultOptions()).BaseLevel()
	if got, want := l.FaceVertices(0), []int{0, 2, 3, 1}; !equalInts(got, want) {
		t.Errorf("FaceVertices(0) = %v, want %v", got, want)
	}
	for v := range l.VertexCount() {
		if l.IsVertexNonManifold(v) {
			t.Errorf("vertex %d non-manifold after reversal", v)
		}
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// =============================================================================
// Creases
// =============================================================================

func TestRefine_CreaseDecay(t *testing.T) {
	d := cubeDescriptor()
	d.Creases = []Crease{{V0: 0, V1: 1, Sharpness: 2}}
	d.Corners = []Corner{{Vertex: 5, Sharpness: 1.5}}
	r := mustUniform(t, d, sdc.DefaultOptions(), 3)

	base := r.BaseLevel()
	e, _ := base.FindEdge(0, 1)
	if base.VertexRule(0) != sdc.RuleDart || base.VertexRule(5) != sdc.RuleCorner {
		t.Errorf("rules = %v, %v, want Dart, Corner", base.VertexRule(0), base.VertexRule(5))
	}

	want := []float32{1, 0}
	for depth := 1; depth <= 2; depth++ {
		l := r.Level(depth - 1)
		for _, ce := range l.EdgeChildEdges(e) {
			if got := r.Level(depth).EdgeSharpness(ce); got != want[depth-1] {
				t.Errorf("level %d crease half sharpness = %v, want %v", depth, got, want[depth-1])
			}
		}
		e = l.EdgeChildEdges(e)[0]
	}

	v := base.VertexChildVertex(5)
	if got := r.Level(1).VertexSharpness(v); got != 0.5 {
		t.Errorf("corner child sharpness = %v, want 0.5", got)
	}
}

func TestRefine_InfiniteCreaseIsLinear(t *testing.T) {
	d := cubeDescriptor()
	d.Creases = []Crease{{V0: 0, V1: 1, Sharpness: sdc.SharpnessInfinite}}
	r := mustUniform(t, d, sdc.DefaultOptions(), 1)
	p := NewPrimvarRefiner(r)
	dst := make([]float32, 3*r.Level(1).VertexCount())
	if err := p.Interpolate(1, cubePositions, dst, 3); err != nil {
		t.Fatal(err)
	}
	e, _ := r.BaseLevel().FindEdge(0, 1)
	mid := r.BaseLevel().EdgeChildVertex(e)
	want := []float32{0, -0.5, 0.5}
	if i, ok := approxEqual(dst[3*mid:3*mid+3], want, 1e-6); !ok {
		t.Errorf("crease edge point = %v, want %v (component %d)", dst[3*mid:3*mid+3], want, i)
	}
}

// =============================================================================
// Fingerprint
// =============================================================================

func TestFingerprint(t *testing.T) {
	a := mustUniform(t, cubeDescriptor(), sdc.DefaultOptions(), 2)
	b := mustUniform(t, cubeDescriptor(), sdc.DefaultOptions(), 2)
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("equal refiners have different fingerprints")
	}

	c := mustUniform(t, cubeDescriptor(), sdc.DefaultOptions(), 3)
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different refinement levels share a fingerprint")
	}

	d := cubeDescriptor()
	d.Creases = []Crease{{V0: 0, V1: 1, Sharpness: 1}, {V0: 2, V1: 3, Sharpness: 2}}
	e := cubeDescriptor()
	e.Creases = []Crease{{V0: 3, V1: 2, Sharpness: 2}, {V0: 1, V1: 0, Sharpness: 1}}
	x := mustRefiner(t, d, sdc.DefaultOptions())
	y := mustRefiner(t, e, sdc.DefaultOptions())
	if x.Fingerprint() != y.Fingerprint() {
		t.Error("crease order changed the fingerprint")
	}
	if x.Fingerprint() == mustRefiner(t, cubeDescriptor(), sdc.DefaultOptions()).Fingerprint() {
		t.Error("creases did not change the fingerprint")
	}
}

// =============================================================================
// Idempotence
// =============================================================================

var levelCmpOpts = cmp.AllowUnexported(
	TopologyRefiner{}, Level{}, relation{}, rowTable{}, refinement{},
	fvarLevel{}, vertexTag{}, edgeTag{}, sdc.SchemeRules{}, sdc.Crease{},
)

func TestTopologyRefiner_Idempotent(t *testing.T) {
	uniform := dartGrid()
	uniform.Creases = []Crease{{V0: 3, V1: 4, Sharpness: 1.5}}
	uniform.Corners = []Corner{{Vertex: 0, Sharpness: sdc.SharpnessInfinite}}

	adaptive := gridDescriptor(8)
	adaptive.Creases = []Crease{{V0: 4*9 + 4, V1: 4*9 + 5, Sharpness: sdc.SharpnessInfinite}}

	tests := []struct {
		name  string
		build func(t *testing.T) *TopologyRefiner
	}{
		{"uniform", func(t *testing.T) *TopologyRefiner {
			return mustUniform(t, uniform, fvarOptions(sdc.FVarLinearCornersPlus2), 3)
		}},
		{"adaptive", func(t *testing.T) *TopologyRefiner {
			return mustAdaptive(t, adaptive, catmarkOptions(sdc.BoundaryEdgeAndCorner),
				AdaptiveOptions{IsolationLevel: 3, SecondaryLevel: 15})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := tt.build(t), tt.build(t)
			if a.LevelCount() != b.LevelCount() {
				t.Fatalf("LevelCount() = %d and %d", a.LevelCount(), b.LevelCount())
			}
			for k := range a.LevelCount() {
				if diff := cmp.Diff(a.Level(k), b.Level(k), levelCmpOpts); diff != "" {
					t.Errorf("level %d differs between builds (-first +second):\n%s", k, diff)
				}
			}
			if diff := cmp.Diff(a, b, levelCmpOpts); diff != "" {
				t.Errorf("refiners differ between builds (-first +second):\n%s", diff)
			}
		})
	}
}
