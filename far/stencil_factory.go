// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package far

import (
	"fmt"
	"math"

	"golang.org/x/exp/slices"

	"github.com/gogpu/subdiv"
)

// InterpolationMode selects which rows a stencil table is built from.
type InterpolationMode uint8

const (
	// InterpolateVertex uses the scheme's vertex masks.
	InterpolateVertex InterpolationMode = iota
	// InterpolateVarying interpolates linearly.
	InterpolateVarying
	// InterpolateFaceVarying uses the rows of one fvar channel.
	InterpolateFaceVarying
)

// String returns the mode name.
func (m InterpolationMode) String() string {
	switch m {
	case InterpolateVertex:
		return "Vertex"
	case InterpolateVarying:
		return "Varying"
	case InterpolateFaceVarying:
		return "FaceVarying"
	default:
		return fmt.Sprintf("InterpolationMode(%d)", m)
	}
}

// StencilTableOptions control StencilTableFactory.Create.
type StencilTableOptions struct {
	InterpolationMode InterpolationMode

	// GenerateOffsets exposes per-stencil offsets through Offsets.
	GenerateOffsets bool

	// GenerateControlVertices prepends one identity stencil per control
	// vertex.
	GenerateControlVertices bool

	// GenerateIntermediateLevels emits the stencils of every level up to
	// MaxLevel. Otherwise only MaxLevel's stencils are emitted.
	GenerateIntermediateLevels bool

	// FactorizeIntermediateLevels is accepted for compatibility. Stencils
	// always reference control vertices only.
	FactorizeIntermediateLevels bool

	// MaxLevel caps the deepest level used; it is clamped to the
	// refiner's deepest level.
	MaxLevel int

	GenerateFirstDerivatives  bool
	GenerateSecondDerivatives bool

	// FVarChannel selects the channel for InterpolateFaceVarying.
	FVarChannel int
}

// DefaultStencilTableOptions returns vertex stencils for all refined
// levels, without control vertices, offsets or derivatives.
func DefaultStencilTableOptions() StencilTableOptions {
	return StencilTableOptions{
		InterpolationMode:           InterpolateVertex,
		GenerateIntermediateLevels:  true,
		FactorizeIntermediateLevels: true,
		MaxLevel:                    MaxRefinementLevel,
	}
}

// StencilTableFactory builds stencil tables from refined topology.
type StencilTableFactory struct{}

// NewStencilTableFactory returns a factory.
func NewStencilTableFactory() *StencilTableFactory {
	return &StencilTableFactory{}
}

// Create builds the stencil table of r. Every stencil is factorized down
// to control vertices: a level k stencil is the level k row composed with
// the level k-1 stencils. No partial table is returned on error.
func (f *StencilTableFactory) Create(r *TopologyRefiner, opts StencilTableOptions) (*StencilTable, error) {
	if !r.refined {
		return nil, fmt.Errorf("%w: %w", ErrStencilTableCreation, ErrNotRefined)
	}
	if opts.MaxLevel < 0 {
		return nil, fmt.Errorf("%w: negative max level %d", ErrStencilTableCreation, opts.MaxLevel)
	}
	derivs := opts.GenerateFirstDerivatives || opts.GenerateSecondDerivatives

	base := r.levels[0]
	controlCount := base.vertCount
	switch opts.InterpolationMode {
	case InterpolateVertex, InterpolateVarying:
	case InterpolateFaceVarying:
		if derivs {
			return nil, fmt.Errorf("%w: %w: derivatives of face-varying stencils",
				ErrStencilTableCreation, ErrFeatureNotAvailable)
		}
		if opts.FVarChannel < 0 || opts.FVarChannel >= len(base.fvar) {
			return nil, fmt.Errorf("%w: %w", ErrStencilTableCreation,
				&IndexError{What: "fvar channel", Index: opts.FVarChannel, Max: len(base.fvar)})
		}
		controlCount = base.fvar[opts.FVarChannel].valueCount
	default:
		return nil, fmt.Errorf("%w: unknown interpolation mode %v", ErrStencilTableCreation, opts.InterpolationMode)
	}

	maxLevel := min(opts.MaxLevel, r.MaxLevel())
	b := newStencilBuilder(controlCount, opts)

	composed := identityRows(controlCount)
	if opts.GenerateControlVertices {
		b.beginLevel(0)
		b.emitLevel(base, &composed)
	}
	for depth := 1; depth <= maxLevel; depth++ {
		ref := r.levels[depth].parent
		composed = b.compose(ref.rowsFor(opts), &composed)
		if opts.GenerateIntermediateLevels || depth == maxLevel {
			b.beginLevel(depth)
			b.emitLevel(r.levels[depth], &composed)
		}
	}

	t := b.table
	subdiv.Logger().Debug("far: stencil table built",
		"mode", opts.InterpolationMode,
		"maxLevel", maxLevel,
		"stencils", t.Len(),
		"weights", len(t.weights))
	return t, nil
}

// rowsFor returns the rows matching the interpolation mode.
func (r *refinement) rowsFor(opts StencilTableOptions) *rowTable {
	switch opts.InterpolationMode {
	case InterpolateVarying:
		return &r.varyingRows
	case InterpolateFaceVarying:
		return &r.fvarRows[opts.FVarChannel]
	default:
		return &r.vertexRows
	}
}

func identityRows(n int) rowTable {
	t := rowTable{
		offsets: make([]int, n+1),
		indices: make([]int, n),
		weights: make([]float64, n),
	}
	for i := range n {
		t.offsets[i+1] = i + 1
		t.indices[i] = i
		t.weights[i] = 1
	}
	return t
}

// derivative channel indices into stencilBuilder.acc.
const (
	chanValue = iota
	chanDu
	chanDv
	chanDuu
	chanDuv
	chanDvv
	chanCount
)

// stencilBuilder accumulates sparse rows over control vertices with a
// dense accumulator per channel and a touched list, emitting indices in
// ascending order so builds are deterministic.
type stencilBuilder struct {
	table   *StencilTable
	acc     [chanCount][]float64
	seen    []bool
	touched []int
	first   bool
	second  bool
}

func newStencilBuilder(controlCount int, opts StencilTableOptions) *stencilBuilder {
	b := &stencilBuilder{
		table:  &StencilTable{controlVertexCount: controlCount, exposeOffsets: opts.GenerateOffsets},
		seen:   make([]bool, controlCount),
		first:  opts.InterpolationMode != InterpolateFaceVarying && opts.GenerateFirstDerivatives,
		second: opts.InterpolationMode != InterpolateFaceVarying && opts.GenerateSecondDerivatives,
	}
	for ch := range b.acc {
		b.acc[ch] = make([]float64, controlCount)
	}
	return b
}

func (b *stencilBuilder) add(ch, index int, w float64) {
	if !b.seen[index] {
		b.seen[index] = true
		b.touched = append(b.touched, index)
	}
	b.acc[ch][index] += w
}

// addRow adds w times row i of t to channel ch.
func (b *stencilBuilder) addRow(ch int, t *rowTable, i int, w float64) {
	indices, weights := t.row(i)
	for k, idx := range indices {
		b.add(ch, idx, w*weights[k])
	}
}

// flush sorts the touched indices, hands each with its channel weights to
// emit and resets the accumulator.
func (b *stencilBuilder) flush(emit func(index int, w *[chanCount]float64)) {
	slices.Sort(b.touched)
	var w [chanCount]float64
	for _, idx := range b.touched {
		for ch := range w {
			w[ch] = b.acc[ch][idx]
			b.acc[ch][idx] = 0
		}
		b.seen[idx] = false
		emit(idx, &w)
	}
	b.touched = b.touched[:0]
}

// compose returns rows composed with prev, so the result references
// control vertices only.
func (b *stencilBuilder) compose(rows, prev *rowTable) rowTable {
	out := newRowTable(rows.rowCount())
	for i := range rows.rowCount() {
		indices, weights := rows.row(i)
		for k, p := range indices {
			b.addRow(chanValue, prev, p, weights[k])
		}
		b.flush(func(idx int, w *[chanCount]float64) {
			if w[chanValue] == 0 {
				return
			}
			out.indices = append(out.indices, idx)
			out.weights = append(out.weights, w[chanValue])
		})
		out.offsets = append(out.offsets, len(out.indices))
	}
	return out
}

func (b *stencilBuilder) beginLevel(depth int) {
	t := b.table
	t.levelStarts = append(t.levelStarts, t.Len())
	t.levelDepths = append(t.levelDepths, depth)
}

// emitLevel appends one stencil per vertex of l. rows holds the composed
// value rows of l's vertices.
func (b *stencilBuilder) emitLevel(l *Level, rows *rowTable) {
	t := b.table
	derivs := b.first || b.second
	for v := range rows.rowCount() {
		b.addRow(chanValue, rows, v, 1)
		if derivs {
			b.addRingDerivatives(l, rows, v)
		}

		t.offsets = append(t.offsets, len(t.indices))
		size := 0
		b.flush(func(idx int, w *[chanCount]float64) {
			t.indices = append(t.indices, idx)
			t.weights = append(t.weights, float32(w[chanValue]))
			if b.first {
				t.duWeights = append(t.duWeights, float32(w[chanDu]))
				t.dvWeights = append(t.dvWeights, float32(w[chanDv]))
			}
			if b.second {
				t.duuWeights = append(t.duuWeights, float32(w[chanDuu]))
				t.duvWeights = append(t.duvWeights, float32(w[chanDuv]))
				t.dvvWeights = append(t.dvvWeights, float32(w[chanDvv]))
			}
			size++
		})
		t.sizes = append(t.sizes, size)
	}
}

// addRingDerivatives accumulates the discrete derivatives of vertex v
// over its ordered one-ring u_0..u_{n-1}. Each channel is
// sum_i c_i (P(u_i) - P(v)) with angles θ_i = 2πi/n, or πi/(n-1) on
// the boundary, and
//
//	du = 2/n cos θ    dv = 2/n sin θ
//	duu = 4/n cos²θ   duv = 4/n sinθ cosθ   dvv = 4/n sin²θ
//
// so every derivative row sums to 0.
func (b *stencilBuilder) addRingDerivatives(l *Level, rows *rowTable, v int) {
	edges := l.vertEdges.row(v)
	n := len(edges)
	if n == 0 {
		return
	}
	step := 2 * math.Pi / float64(n)
	if l.vertTags[v].boundary {
		step = 0
		if n > 1 {
			step = math.Pi / float64(n-1)
		}
	}

	fn := float64(n)
	for i, e := range edges {
		u := l.otherVertex(e, v)
		sin, cos := math.Sincos(step * float64(i))
		if b.first {
			b.ringTerm(chanDu, rows, u, v, 2/fn*cos)
			b.ringTerm(chanDv, rows, u, v, 2/fn*sin)
		}
		if b.second {
			b.ringTerm(chanDuu, rows, u, v, 4/fn*cos*cos)
			b.ringTerm(chanDuv, rows, u, v, 4/fn*sin*cos)
			b.ringTerm(chanDvv, rows, u, v, 4/fn*sin*sin)
		}
	}
}

func (b *stencilBuilder) ringTerm(ch int, rows *rowTable, u, v int, c float64) {
	if c == 0 {
		return
	}
	b.addRow(ch, rows, u, c)
	b.addRow(ch, rows, v, -c)
}
