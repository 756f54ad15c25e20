// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package far

import (
	"errors"
	"fmt"
)

// Construction errors.
var (
	// ErrInvalidTopology is returned when a TopologyDescriptor violates one
	// of its invariants. The wrapping error names the invariant and index.
	ErrInvalidTopology = errors.New("far: invalid topology")

	// ErrIncompatibleOptions is returned when the subdivision options
	// cannot be applied to the mesh, e.g. Loop on a non-triangle mesh.
	ErrIncompatibleOptions = errors.New("far: incompatible subdivision options")
)

// Build errors.
var (
	// ErrAlreadyRefined is returned when a refiner is refined twice.
	ErrAlreadyRefined = errors.New("far: topology already refined")

	// ErrNotRefined is returned when an operation needs refined levels.
	ErrNotRefined = errors.New("far: topology not refined")

	// ErrInvalidRefinementLevel is returned for refinement depths outside
	// [1, MaxRefinementLevel].
	ErrInvalidRefinementLevel = errors.New("far: invalid refinement level")

	// ErrStencilTableCreation is returned when a stencil table cannot be
	// built from a refiner.
	ErrStencilTableCreation = errors.New("far: stencil table creation failed")

	// ErrFeatureNotAvailable is returned for option combinations that are
	// not supported, e.g. derivatives of face-varying stencils.
	ErrFeatureNotAvailable = errors.New("far: feature not available")
)

// Evaluation errors.
var (
	// ErrInvalidBufferSize is wrapped by BufferSizeError.
	ErrInvalidBufferSize = errors.New("far: invalid buffer size")

	// ErrIndexOutOfBounds is wrapped by IndexError.
	ErrIndexOutOfBounds = errors.New("far: index out of bounds")
)

// BufferSizeError reports a caller buffer whose length does not match
// what the operation needs.
type BufferSizeError struct {
	Buffer   string
	Expected int
	Actual   int
}

func (e *BufferSizeError) Error() string {
	return fmt.Sprintf("far: invalid buffer size: %s has %d values, want %d", e.Buffer, e.Actual, e.Expected)
}

// Unwrap returns ErrInvalidBufferSize.
func (e *BufferSizeError) Unwrap() error { return ErrInvalidBufferSize }

// IndexError reports an index outside [0, Max).
type IndexError struct {
	What  string
	Index int
	Max   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("far: %s index %d out of bounds [0, %d)", e.What, e.Index, e.Max)
}

// Unwrap returns ErrIndexOutOfBounds.
func (e *IndexError) Unwrap() error { return ErrIndexOutOfBounds }

func topologyError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTopology, fmt.Sprintf(format, args...))
}
