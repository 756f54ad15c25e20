// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sdc

import "fmt"

// Scheme selects the subdivision rules.
type Scheme uint8

const (
	// Bilinear splits faces like Catmull-Clark but interpolates linearly.
	Bilinear Scheme = iota
	// CatmullClark is the quad-based smooth scheme.
	CatmullClark
	// Loop is the triangle-based smooth scheme.
	Loop
)

// String returns the scheme name.
func (s Scheme) String() string {
	switch s {
	case Bilinear:
		return "Bilinear"
	case CatmullClark:
		return "CatmullClark"
	case Loop:
		return "Loop"
	default:
		return fmt.Sprintf("Scheme(%d)", s)
	}
}

// RegularFaceSize returns the face size the scheme produces: 4 for quad
// schemes, 3 for Loop.
func (s Scheme) RegularFaceSize() int {
	if s == Loop {
		return 3
	}
	return 4
}

// RegularValence returns the valence of a regular interior vertex.
func (s Scheme) RegularValence() int {
	if s == Loop {
		return 6
	}
	return 4
}

// RegularBoundaryValence returns the valence of a regular boundary vertex.
func (s Scheme) RegularBoundaryValence() int {
	if s == Loop {
		return 4
	}
	return 3
}

// HasFacePoints reports whether refinement adds a vertex per face.
func (s Scheme) HasFacePoints() bool { return s != Loop }

// BoundaryInterpolation controls how open mesh boundaries are treated.
type BoundaryInterpolation uint8

const (
	// BoundaryNone leaves boundary faces out of the limit surface: faces
	// touching the boundary are tagged as holes.
	BoundaryNone BoundaryInterpolation = iota
	// BoundaryEdgeOnly makes boundary edges infinitely sharp.
	BoundaryEdgeOnly
	// BoundaryEdgeAndCorner also makes single-face corners infinitely sharp.
	BoundaryEdgeAndCorner
)

// String returns the mode name.
func (b BoundaryInterpolation) String() string {
	switch b {
	case BoundaryNone:
		return "None"
	case BoundaryEdgeOnly:
		return "EdgeOnly"
	case BoundaryEdgeAndCorner:
		return "EdgeAndCorner"
	default:
		return fmt.Sprintf("BoundaryInterpolation(%d)", b)
	}
}

// FVarLinearInterpolation controls where face-varying data is
// interpolated linearly instead of smoothly.
type FVarLinearInterpolation uint8

const (
	// FVarLinearNone smooths everywhere, including fvar boundaries.
	FVarLinearNone FVarLinearInterpolation = iota
	// FVarLinearCornersOnly keeps fvar corners fixed.
	FVarLinearCornersOnly
	// FVarLinearCornersPlus1 also keeps junctions of 3 or more fvar regions fixed.
	FVarLinearCornersPlus1
	// FVarLinearCornersPlus2 also keeps fvar darts and concave fvar corners fixed.
	FVarLinearCornersPlus2
	// FVarLinearBoundaries is linear along every fvar boundary.
	FVarLinearBoundaries
	// FVarLinearAll is linear everywhere.
	FVarLinearAll
)

// String returns the mode name.
func (f FVarLinearInterpolation) String() string {
	switch f {
	case FVarLinearNone:
		return "None"
	case FVarLinearCornersOnly:
		return "CornersOnly"
	case FVarLinearCornersPlus1:
		return "CornersPlus1"
	case FVarLinearCornersPlus2:
		return "CornersPlus2"
	case FVarLinearBoundaries:
		return "Boundaries"
	case FVarLinearAll:
		return "All"
	default:
		return fmt.Sprintf("FVarLinearInterpolation(%d)", f)
	}
}

// CreasingMethod selects how semi-sharp creases decay between levels.
type CreasingMethod uint8

const (
	// CreaseUniform subtracts 1 per level.
	CreaseUniform CreasingMethod = iota
	// CreaseChaikin blends sharpness with neighboring semi-sharp edges first.
	CreaseChaikin
)

// String returns the method name.
func (c CreasingMethod) String() string {
	switch c {
	case CreaseUniform:
		return "Uniform"
	case CreaseChaikin:
		return "Chaikin"
	default:
		return fmt.Sprintf("CreasingMethod(%d)", c)
	}
}

// TriangleSubdivision selects the Catmull-Clark edge rule next to triangles.
type TriangleSubdivision uint8

const (
	// TriCatmullClark uses the plain Catmull-Clark rule.
	TriCatmullClark TriangleSubdivision = iota
	// TriSmooth uses a modified edge weight for triangles, which gives
	// smoother results on triangle-heavy meshes.
	TriSmooth
)

// String returns the variant name.
func (t TriangleSubdivision) String() string {
	switch t {
	case TriCatmullClark:
		return "CatmullClark"
	case TriSmooth:
		return "Smooth"
	default:
		return fmt.Sprintf("TriangleSubdivision(%d)", t)
	}
}

// Options is the immutable configuration of one refiner.
type Options struct {
	Scheme                   Scheme
	VtxBoundaryInterpolation BoundaryInterpolation
	FVarLinearInterpolation  FVarLinearInterpolation
	CreasingMethod           CreasingMethod
	TriangleSubdivision      TriangleSubdivision
}

// DefaultOptions returns CatmullClark with no boundary interpolation,
// fully linear face-varying data, uniform creasing and the plain
// triangle rule.
func DefaultOptions() Options {
	return Options{
		Scheme:                   CatmullClark,
		VtxBoundaryInterpolation: BoundaryNone,
		FVarLinearInterpolation:  FVarLinearAll,
		CreasingMethod:           CreaseUniform,
		TriangleSubdivision:      TriCatmullClark,
	}
}

// Validate reports enum values outside their defined range.
func (o Options) Validate() error {
	switch {
	case o.Scheme > Loop:
		return fmt.Errorf("sdc: unknown scheme %d", o.Scheme)
	case o.VtxBoundaryInterpolation > BoundaryEdgeAndCorner:
		return fmt.Errorf("sdc: unknown boundary interpolation %d", o.VtxBoundaryInterpolation)
	case o.FVarLinearInterpolation > FVarLinearAll:
		return fmt.Errorf("sdc: unknown fvar interpolation %d", o.FVarLinearInterpolation)
	case o.CreasingMethod > CreaseChaikin:
		return fmt.Errorf("sdc: unknown creasing method %d", o.CreasingMethod)
	case o.TriangleSubdivision > TriSmooth:
		return fmt.Errorf("sdc: unknown triangle subdivision %d", o.TriangleSubdivision)
	}
	return nil
}
