// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package far

import "fmt"

// PrimvarRefiner applies the refinement of a TopologyRefiner to caller
// data one level at a time.
//
// Buffers hold elements float32 values per vertex (or face, or fvar
// value), packed without gaps. Interpolating level k reads level k-1 data
// from src and writes level k data to dst.
type PrimvarRefiner struct {
	refiner *TopologyRefiner
}

// NewPrimvarRefiner returns a PrimvarRefiner for r.
func NewPrimvarRefiner(r *TopologyRefiner) *PrimvarRefiner {
	return &PrimvarRefiner{refiner: r}
}

// Interpolate refines vertex data with the scheme's masks.
func (p *PrimvarRefiner) Interpolate(level int, src, dst []float32, elements int) error {
	ref, err := p.refinementAt(level)
	if err != nil {
		return err
	}
	if err := checkSizes(src, dst, elements, ref.parent.vertCount, ref.child.vertCount); err != nil {
		return err
	}
	applyRows(&ref.vertexRows, src, dst, elements)
	return nil
}

// InterpolateVarying refines varying data linearly.
func (p *PrimvarRefiner) InterpolateVarying(level int, src, dst []float32, elements int) error {
	ref, err := p.refinementAt(level)
	if err != nil {
		return err
	}
	if err := checkSizes(src, dst, elements, ref.parent.vertCount, ref.child.vertCount); err != nil {
		return err
	}
	applyRows(&ref.varyingRows, src, dst, elements)
	return nil
}

// InterpolateFaceUniform copies per-face data from each parent face to
// its child faces.
func (p *PrimvarRefiner) InterpolateFaceUniform(level int, src, dst []float32, elements int) error {
	ref, err := p.refinementAt(level)
	if err != nil {
		return err
	}
	if err := checkSizes(src, dst, elements, ref.parent.FaceCount(), ref.child.FaceCount()); err != nil {
		return err
	}
	for cf, pf := range ref.childFaceParent {
		copy(dst[cf*elements:(cf+1)*elements], src[pf*elements:(pf+1)*elements])
	}
	return nil
}

// InterpolateFaceVarying refines the values of fvar channel ch, following
// the FVarLinearInterpolation option.
func (p *PrimvarRefiner) InterpolateFaceVarying(level, ch int, src, dst []float32, elements int) error {
	ref, err := p.refinementAt(level)
	if err != nil {
		return err
	}
	if ch < 0 || ch >= len(ref.fvarRows) {
		return &IndexError{What: "fvar channel", Index: ch, Max: len(ref.fvarRows)}
	}
	if err := checkSizes(src, dst, elements,
		ref.parent.fvar[ch].valueCount, ref.child.fvar[ch].valueCount); err != nil {
		return err
	}
	applyRows(&ref.fvarRows[ch], src, dst, elements)
	return nil
}

// refinementAt returns the refinement that produced level.
func (p *PrimvarRefiner) refinementAt(level int) (*refinement, error) {
	n := p.refiner.LevelCount()
	if level < 1 || level >= n {
		return nil, &IndexError{What: "refinement level", Index: level, Max: n}
	}
	return p.refiner.levels[level].parent, nil
}

func checkSizes(src, dst []float32, elements, srcCount, dstCount int) error {
	if elements < 1 {
		return fmt.Errorf("%w: %d elements per vertex", ErrInvalidBufferSize, elements)
	}
	if want := elements * srcCount; len(src) != want {
		return &BufferSizeError{Buffer: "src", Expected: want, Actual: len(src)}
	}
	if want := elements * dstCount; len(dst) != want {
		return &BufferSizeError{Buffer: "dst", Expected: want, Actual: len(dst)}
	}
	return nil
}

func applyRows(rows *rowTable, src, dst []float32, elements int) {
	for i := range rows.rowCount() {
		out := dst[i*elements : (i+1)*elements]
		clear(out)
		indices, weights := rows.row(i)
		for k, idx := range indices {
			w := float32(weights[k])
			in := src[idx*elements : (idx+1)*elements]
			for e := range out {
				out[e] += w * in[e]
			}
		}
	}
}
